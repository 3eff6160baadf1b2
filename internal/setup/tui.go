// Package setup provides the interactive terminal wizard that generates a
// finboard config file.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/juliobfg/finboard/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard and writes config.gen.yaml.
func RunTUI() error {
	var (
		listenAddr      string
		endpoint        string
		apiKey          string
		pollIntervalStr string
		openHourStr     string
		closeHourStr    string
		confirm         bool
	)

	// defaults
	listenAddr = config.DefaultListenAddr
	endpoint = config.DefaultAPIEndpoint
	pollIntervalStr = config.DefaultPollInterval.String()
	openHourStr = strconv.Itoa(config.DefaultOpenHour)
	closeHourStr = strconv.Itoa(config.DefaultCloseHour)

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FINBOARD CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up your finance dashboard.\n"))

	fmt.Println(stepStyle.Render("STEP 1: FINANCE API"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API endpoint").
				Description("HG Brasil-compatible finance API URL").
				Value(&endpoint),
			huh.NewInput().
				Title("API key").
				Description("Leave empty to use the FINBOARD_API_KEY env variable").
				Value(&apiKey),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FINBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: POLLING & MARKET HOURS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Poll interval").
				Description("Go duration, e.g. 1h or 30s").
				Validate(validateDuration).
				Value(&pollIntervalStr),
			huh.NewInput().
				Title("Market open hour").
				Validate(validateHour).
				Value(&openHourStr),
			huh.NewInput().
				Title("Market close hour").
				Validate(validateHour).
				Value(&closeHourStr),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FINBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: WEB SERVER"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("host:port, e.g. :8080").
				Value(&listenAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FINBOARD CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Endpoint: %s\nPoll interval: %s\nMarket hours: %s:00-%s:00\nListen: %s\n",
		endpoint, pollIntervalStr, openHourStr, closeHourStr, listenAddr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	pollInterval, _ := time.ParseDuration(pollIntervalStr)
	openHour, _ := strconv.Atoi(openHourStr)
	closeHour, _ := strconv.Atoi(closeHourStr)

	cfg := config.ConfigTmp{
		ListenAddr:      listenAddr,
		APIEndpoint:     endpoint,
		APIKey:          apiKey,
		PollInterval:    pollInterval,
		MarketOpenHour:  &openHour,
		MarketCloseHour: &closeHour,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", filename)))
	return nil
}

func validateDuration(s string) error {
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("must be a valid duration, e.g. 1h")
	}
	return nil
}

func validateHour(s string) error {
	h, err := strconv.Atoi(s)
	if err != nil || h < 0 || h > 24 {
		return fmt.Errorf("must be an hour between 0 and 24")
	}
	return nil
}
