package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Transcribe key.Binding
	Summarize  key.Binding
	Enrich     key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Transcribe: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "transcribe URL"),
		),
		Summarize: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "summarize"),
		),
		Enrich: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "enrich"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}
