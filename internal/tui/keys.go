package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle  key.Binding
	Forward key.Binding
	Back    key.Binding
	Start   key.Binding
	End     key.Binding
	Fast    key.Binding
	Normal  key.Binding
	Slow    key.Binding
	Share   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:  key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		Forward: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "step")),
		Back:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back")),
		Start:   key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home/g", "start")),
		End:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end/G", "end")),
		Fast:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "50ms")),
		Normal:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "100ms")),
		Slow:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "200ms")),
		Share:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy link")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Forward, k.Back, k.Share, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Forward, k.Back},
		{k.Start, k.End},
		{k.Fast, k.Normal, k.Slow},
		{k.Share, k.Help, k.Quit},
	}
}
