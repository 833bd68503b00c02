package theme

import "github.com/charmbracelet/lipgloss"

// Theme encapsulates the visual palette for the dashboard UI.
type Theme struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Accent    lipgloss.Style
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Danger    lipgloss.Style
	Faint     lipgloss.Style
	Highlight lipgloss.Style
	Border    lipgloss.Style
	Header    lipgloss.Style
	Selected  lipgloss.Style
}

// Dark returns the default high-contrast palette for dark terminals.
func Dark() Theme {
	return Theme{
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true).Underline(true),
		Subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("219")).Bold(true),
		Primary:   lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		Secondary: lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("227")).Bold(true),
		Danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Faint:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Border:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Header:    lipgloss.NewStyle().Foreground(lipgloss.Color("117")).Bold(true),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("63")),
	}
}

// Light is a muted palette for light terminals, chosen by the persisted
// darkMode preference.
func Light() Theme {
	return Theme{
		Title:     lipgloss.NewStyle().Foreground(lipgloss.Color("55")).Bold(true).Underline(true),
		Subtitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color("91")).Bold(true),
		Primary:   lipgloss.NewStyle().Foreground(lipgloss.Color("24")),
		Secondary: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("130")).Bold(true),
		Danger:    lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
		Faint:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
		Border:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Header:    lipgloss.NewStyle().Foreground(lipgloss.Color("26")).Bold(true),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("61")),
	}
}

// ForMode picks the palette for the persisted preference.
func ForMode(dark bool) Theme {
	if dark {
		return Dark()
	}
	return Light()
}
