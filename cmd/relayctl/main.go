package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"relayctl/internal/api"
	"relayctl/internal/config"
	"relayctl/internal/fleet"
	"relayctl/internal/logging"
	"relayctl/internal/session"
	"relayctl/internal/sms"
	"relayctl/internal/types"
)

var (
	// Global flags
	verbose    bool
	serverFlag string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "relayctl - SMS relay fleet operator console",
	Long: `relayctl is an operator console for an SMS relay gateway.

It talks to the gateway's admin API to inspect the device fleet, search
messages received by a device, dispatch send instructions through a chosen
SIM slot, and purge message history.

Run without arguments to start the interactive console.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use == "relayctl" && cmd.CalledAs() == "relayctl" {
			return nil
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole()
	},
}

// loginCmd authenticates against the gateway and stores the token
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the gateway and store the session token",
	Long: `Exchanges a username and password for a session token and stores it
under the relayctl config directory. The password can also be supplied via
the RELAYCTL_PASSWORD environment variable.`,
	RunE: runLogin,
}

// logoutCmd destroys the stored session token
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Destroy the stored session token",
	RunE:  runLogout,
}

// devicesCmd lists the device fleet
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List every registered relay device",
	RunE:  runDevices,
}

// deviceCmd groups per-device operations
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Per-device operations",
}

// deviceStatusCmd probes one device
var deviceStatusCmd = &cobra.Command{
	Use:   "status [phone]",
	Short: "Show live status and recent messages for one device",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeviceStatus,
}

// smsCmd groups message operations
var smsCmd = &cobra.Command{
	Use:   "sms",
	Short: "Message query and command operations",
}

// smsQueryCmd searches messages on a device
var smsQueryCmd = &cobra.Command{
	Use:   "query [phone]",
	Short: "List messages received by a device",
	Args:  cobra.ExactArgs(1),
	RunE:  runSMSQuery,
}

// smsSendCmd dispatches a send instruction
var smsSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Instruct a device to send an SMS through one of its SIM slots",
	Long: `Dispatches a send instruction to the gateway. Acceptance means the
gateway queued the instruction for the device, not that the SMS left the SIM.

Example:
  relayctl sms send --device 15550001111 --slot 0 --to 15552223333 --text "on my way"`,
	RunE: runSMSSend,
}

// smsDeleteCmd purges all messages of a device
var smsDeleteCmd = &cobra.Command{
	Use:   "delete [phone]",
	Short: "Delete every message stored for a device, both SIM slots",
	Args:  cobra.ExactArgs(1),
	RunE:  runSMSDelete,
}

// versionCmd reads or updates the published app version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show or update the app version published by the gateway",
	RunE:  runVersion,
}

// statusCmd summarizes configuration and session state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, session state and gateway reachability",
	RunE:  runStatus,
}

var (
	// login flags
	loginUsername string
	loginPassword string

	// sms query flags
	querySlot  int
	queryLimit int

	// sms send flags
	sendDevice string
	sendSlot   int
	sendTo     string
	sendText   string

	// sms delete flags
	deleteYes bool

	// version flags
	versionSetCode int
	versionSetName string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Gateway base URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (overrides config)")

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Gateway username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Gateway password (or RELAYCTL_PASSWORD)")

	smsQueryCmd.Flags().IntVar(&querySlot, "slot", -1, "Restrict to one SIM slot (0 or 1; default both)")
	smsQueryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum messages to return (default from config)")

	smsSendCmd.Flags().StringVar(&sendDevice, "device", "", "Relay device phone")
	smsSendCmd.Flags().IntVar(&sendSlot, "slot", 0, "SIM slot to send through (0 or 1)")
	smsSendCmd.Flags().StringVar(&sendTo, "to", "", "Target phone number")
	smsSendCmd.Flags().StringVar(&sendText, "text", "", "Message text")

	smsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	versionCmd.Flags().IntVar(&versionSetCode, "set", 0, "Publish a new version code (must be >= 1)")
	versionCmd.Flags().StringVar(&versionSetName, "name", "", "Version name to publish alongside --set")

	deviceCmd.AddCommand(deviceStatusCmd)
	smsCmd.AddCommand(smsQueryCmd, smsSendCmd, smsDeleteCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd, devicesCmd, deviceCmd, smsCmd, versionCmd, statusCmd)
}

// setup loads config and builds the session-aware gateway client shared by
// every subcommand.
func setup() (*config.Config, *session.Session, *api.Client, error) {
	path, err := config.File()
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverFlag != "" {
		cfg.Server.BaseURL = serverFlag
	}
	if timeout > 0 {
		cfg.Server.Timeout = timeout.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	tokenPath, err := session.DefaultTokenPath()
	if err != nil {
		return nil, nil, nil, err
	}
	sess := session.NewPersistent(tokenPath)
	client := api.New(cfg.Server.BaseURL, cfg.GetTimeout(), sess)
	return cfg, sess, client, nil
}

func commandContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.GetTimeout())
}

func runConsole() error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}

	dir, err := config.Dir()
	if err == nil {
		if err := logging.Initialize(dir, cfg.Logging.Level, cfg.Logging.Debug); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	defer logging.Close()

	model := newConsoleModel(cfg, sess, client)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}

	password := loginPassword
	if password == "" {
		password = os.Getenv("RELAYCTL_PASSWORD")
	}
	if loginUsername == "" || password == "" {
		return fmt.Errorf("username and password are required (see --username, --password)")
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()

	logger.Info("Authenticating", zap.String("server", cfg.Server.BaseURL), zap.String("user", loginUsername))
	token, err := client.Login(ctx, loginUsername, password)
	if err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("gateway rejected the credentials")
		}
		return err
	}
	if err := sess.SetToken(token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	fmt.Println("Signed in. Token stored.")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	_, sess, _, err := setup()
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		fmt.Println("No stored session.")
		return nil
	}
	if err := sess.Clear(); err != nil {
		return fmt.Errorf("failed to remove session token: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

// requireAuth maps missing-credential and expired-session failures to a
// consistent operator hint.
func requireAuth(sess *session.Session) error {
	if err := sess.Require(); err != nil {
		return fmt.Errorf("not signed in, run 'relayctl login' first")
	}
	return nil
}

func asAuthError(err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("session expired, run 'relayctl login' again")
	}
	return err
}

func runDevices(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()

	registry := fleet.NewRegistry(client)
	if err := registry.Load(ctx); err != nil {
		return asAuthError(err)
	}

	devices := registry.Devices()
	stats := registry.Stats()
	fmt.Printf("%d devices (%d online, %d offline)\n\n", stats.Total, stats.Online, stats.Offline)
	fmt.Printf("%-16s %-8s %-20s %s\n", "PHONE", "STATUS", "LAST SEEN", "SIM SLOTS")
	for _, d := range devices {
		fmt.Printf("%-16s %-8s %-20s %s\n", d.Phone, d.StatusString(), d.LastSeenString(), d.SlotSummary())
	}
	return nil
}

func runDeviceStatus(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	phone := strings.TrimSpace(args[0])

	ctx, cancel := commandContext(cfg)
	defer cancel()

	logger.Debug("Probing device", zap.String("phone", phone))
	device, err := client.DeviceStatus(ctx, phone)
	if err != nil {
		return asAuthError(err)
	}

	fmt.Printf("Device:    %s\n", device.Phone)
	fmt.Printf("Status:    %s\n", device.StatusString())
	fmt.Printf("Last seen: %s\n", device.LastSeenString())
	for slot := 0; slot < types.MaxSlots; slot++ {
		fmt.Printf("SIM%d:      %s\n", slot+1, device.SlotLabel(slot))
	}

	engine := sms.NewEngine(client, cfg.Query.BulkLimit, cfg.Query.PreviewLimit, cfg.Query.PageSize)
	preview, err := engine.Preview(ctx, phone)
	if err != nil {
		return asAuthError(err)
	}
	fmt.Printf("\nRecent messages (%d):\n", len(preview))
	for _, m := range preview {
		fmt.Printf("  [SIM%d] %s  %s  %s\n", m.Slot+1, m.TimeString(), m.Sender, m.Content)
	}
	return nil
}

func runSMSQuery(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	phone := strings.TrimSpace(args[0])

	query := api.MessageQuery{Phone: phone, Limit: cfg.Query.BulkLimit}
	if queryLimit > 0 {
		query.Limit = queryLimit
	}
	if querySlot >= 0 {
		if querySlot >= types.MaxSlots {
			return fmt.Errorf("slot must be 0 or 1")
		}
		slot := querySlot
		query.Slot = &slot
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()

	logger.Debug("Querying messages", zap.String("phone", phone), zap.Int("limit", query.Limit))
	msgs, err := client.QueryMessages(ctx, query)
	if err != nil {
		return asAuthError(err)
	}

	fmt.Printf("%d messages on %s\n", len(msgs), phone)
	for i, m := range msgs {
		fmt.Printf("%4d  [SIM%d] %s  %-16s %s\n", i+1, m.Slot+1, m.TimeString(), m.Sender, m.Content)
	}
	return nil
}

func runSMSSend(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	command := types.SendCommand{
		Phone:       sendDevice,
		Slot:        sendSlot,
		TargetPhone: sendTo,
		Content:     sendText,
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()

	engine := sms.NewEngine(client, cfg.Query.BulkLimit, cfg.Query.PreviewLimit, cfg.Query.PageSize)
	res, err := engine.Send(ctx, command)
	if err != nil {
		return asAuthError(err)
	}
	if !res.Accepted {
		return fmt.Errorf("gateway rejected the instruction: %s", res.Reason)
	}
	fmt.Printf("Accepted: %s will send to %s via SIM%d\n", command.Phone, command.TargetPhone, command.Slot+1)
	return nil
}

func runSMSDelete(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	phone := strings.TrimSpace(args[0])

	if !deleteYes {
		fmt.Printf("Delete ALL messages on %s, both SIM slots? [y/N] ", phone)
		var answer string
		fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()

	engine := sms.NewEngine(client, cfg.Query.BulkLimit, cfg.Query.PreviewLimit, cfg.Query.PageSize)
	logger.Info("Deleting all messages", zap.String("phone", phone))
	if err := engine.DeleteAll(ctx, phone); err != nil {
		return asAuthError(err)
	}
	fmt.Printf("Deleted all messages on %s.\n", phone)
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()

	if versionSetCode > 0 {
		info := types.VersionInfo{VersionCode: versionSetCode, VersionName: versionSetName}
		if err := client.SetAppVersion(ctx, info); err != nil {
			return asAuthError(err)
		}
		fmt.Printf("Published version %d", info.VersionCode)
		if info.VersionName != "" {
			fmt.Printf(" (%s)", info.VersionName)
		}
		fmt.Println()
		return nil
	}

	info, err := client.AppVersion(ctx)
	if err != nil {
		return asAuthError(err)
	}
	fmt.Printf("App version: %d", info.VersionCode)
	if info.VersionName != "" {
		fmt.Printf(" (%s)", info.VersionName)
	}
	fmt.Println()
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, sess, client, err := setup()
	if err != nil {
		return err
	}

	fmt.Printf("Server:   %s\n", cfg.Server.BaseURL)
	fmt.Printf("Timeout:  %s\n", cfg.GetTimeout())
	fmt.Printf("Session:  ")
	if sess.Authenticated() {
		fmt.Println("signed in")
	} else {
		fmt.Println("signed out")
	}

	if !sess.Authenticated() {
		return nil
	}

	ctx, cancel := commandContext(cfg)
	defer cancel()
	info, err := client.AppVersion(ctx)
	if err != nil {
		fmt.Printf("Gateway:  unreachable (%v)\n", err)
		return nil
	}
	fmt.Printf("Gateway:  reachable, app version %d\n", info.VersionCode)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
