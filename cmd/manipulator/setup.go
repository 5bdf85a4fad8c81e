package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.bug.st/serial"

	"github.com/Deamonio/Manipulator-Robot/pkg/arm"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct {
	Config string `long:"config" short:"c" default:"manipulator.json" description:"Config file path"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Manipulator Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg := loadOrDefault(c.Config)

	if _, err := os.Stat(c.Config); err == nil {
		if !confirmOverwrite(c.Config) {
			fmt.Println("Keeping existing configuration.")
			return nil
		}
	}

	cfg.Port = choosePort(cfg.Port)
	cfg.Baud = chooseBaud(cfg.Baud)

	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Joint Ranges ━━━"))
	fmt.Println()
	fmt.Println(renderJointTable(cfg))
	fmt.Println()
	fmt.Println(dimStyle.Render("Edit " + c.Config + " to change ranges or key timing."))

	if err := cfg.SaveTo(c.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", c.Config)
	fmt.Println()
	fmt.Println("Start driving with: " + headerStyle.Render("manipulator drive"))

	return nil
}

// loadOrDefault keeps whatever a previous setup wrote as the starting
// point; a missing or broken file just means stock settings.
func loadOrDefault(path string) *arm.Config {
	cfg, err := arm.LoadConfigFrom(path)
	if err != nil {
		return arm.DefaultConfig()
	}
	return cfg
}

func confirmOverwrite(path string) bool {
	overwrite := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite it?", path)).
				Affirmative("Overwrite").
				Negative("Keep").
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return overwrite
}

func choosePort(current string) string {
	fmt.Println("Scanning for serial ports...")
	fmt.Println()

	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
	}

	var options []huh.Option[string]
	for _, p := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(p, "Bluetooth") {
			continue
		}
		options = append(options, huh.NewOption(p, p))
	}
	if current != "" {
		options = append(options, huh.NewOption(fmt.Sprintf("Keep current (%s)", current), current))
	}

	if len(options) == 0 {
		fmt.Println("No serial ports found. Keeping the default port;")
		fmt.Println("the drive command falls back to simulation when it is absent.")
		return current
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which serial port is the rig on?").
				Description("The hardware controller usually shows up as a USB serial device").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

func chooseBaud(current int) int {
	rates := []int{9600, 57600, 115200, 1000000}

	var options []huh.Option[int]
	for _, r := range rates {
		label := strconv.Itoa(r)
		if r == current {
			label += " (current)"
		}
		options = append(options, huh.NewOption(label, r))
	}

	baud := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Baud rate").
				Description("Must match the firmware on the controller").
				Options(options...).
				Value(&baud),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return baud
}

func renderJointTable(cfg *arm.Config) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableMotorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(cfg.Joints))
	for i, j := range cfg.Joints {
		rows = append(rows, []string{
			fmt.Sprintf("M%d", i+1),
			j.Name,
			strconv.Itoa(j.Min),
			strconv.Itoa(j.Max),
			strconv.Itoa(j.Home),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Motor", "Name", "Min", "Max", "Home").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col <= 1 {
				return tableMotorStyle
			}
			return tableCellStyle
		})

	return t.Render()
}
