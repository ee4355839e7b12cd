package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmOperation displays a warning box and prompts the user to answer
// yes/no before proceeding. Returns true if the user confirmed, false
// otherwise.
func ConfirmOperation(title string, warnings []string) bool {
	width := GetTerminalWidth()

	var lines []string

	titleLine := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true).
		Render(fmt.Sprintf("   ⚠  %s", title))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	for _, warning := range warnings {
		bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	content := strings.Join(lines, "\n")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(content)

	fmt.Println(box)
	fmt.Println()

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	fmt.Print(promptStyle.Render("Proceed? [y/N]: "))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		fmt.Println()
		return true
	}

	fmt.Println()
	fmt.Println(MutedStyle.Render("  Operation cancelled."))
	fmt.Println()
	return false
}

// ConfirmWriteToUnknownDevice is a pre-configured confirmation for writing
// a payload to a peripheral that has never been seen before.
func ConfirmWriteToUnknownDevice(deviceID string) bool {
	return ConfirmOperation(
		"WRITE TO UNKNOWN DEVICE",
		[]string{
			fmt.Sprintf("Device %s is not in your device registry", deviceID),
			"The payload will be written to the first writable characteristic found",
			"Writing arbitrary data can change the behavior of some peripherals",
		},
	)
}
