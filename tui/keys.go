package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Listen  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Restart key.Binding
	First   key.Binding
	Last    key.Binding

	VolumeUp    key.Binding
	VolumeDown  key.Binding
	WindowUp    key.Binding
	WindowDown  key.Binding
	ConfirmUp   key.Binding
	ConfirmDown key.Binding

	PeakUp         key.Binding
	PeakDown       key.Binding
	ProminenceUp   key.Binding
	ProminenceDown key.Binding
	CooldownUp     key.Binding
	CooldownDown   key.Binding
	HoldUp         key.Binding
	HoldDown       key.Binding

	Help key.Binding
	Quit key.Binding
}

func bind(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

func defaultKeys() keyMap {
	return keyMap{
		Listen:  key.NewBinding(key.WithKeys(" ", "m"), key.WithHelp("space", "mic on/off")),
		Next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev")),
		Restart: bind("restart", "r"),
		First:   bind("first", "g", "home"),
		Last:    bind("last", "G", "end"),

		VolumeUp:    bind("gate up", "+", "="),
		VolumeDown:  bind("gate down", "-", "_"),
		WindowUp:    bind("window up", "]"),
		WindowDown:  bind("window down", "["),
		ConfirmUp:   bind("confirm up", ">", "."),
		ConfirmDown: bind("confirm down", "<", ","),

		PeakUp:         bind("peak up", "K"),
		PeakDown:       bind("peak down", "k"),
		ProminenceUp:   bind("prominence up", "P"),
		ProminenceDown: bind("prominence down", "p"),
		CooldownUp:     bind("cooldown up", "C"),
		CooldownDown:   bind("cooldown down", "c"),
		HoldUp:         bind("hold up", "S"),
		HoldDown:       bind("hold down", "s"),

		Help: bind("help", "?"),
		Quit: bind("quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Listen, k.Prev, k.Next, k.Restart, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Listen, k.Prev, k.Next, k.Restart, k.First, k.Last},
		{k.VolumeUp, k.VolumeDown, k.WindowUp, k.WindowDown, k.ConfirmUp, k.ConfirmDown},
		{k.PeakUp, k.PeakDown, k.ProminenceUp, k.ProminenceDown, k.CooldownUp, k.CooldownDown, k.HoldUp, k.HoldDown},
		{k.Help, k.Quit},
	}
}
