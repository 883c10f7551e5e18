package cmd

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canlabs/slcand"
)

const (
	flagConfig   = "config"
	flagPort     = "port"
	flagBaudrate = "baudrate"
	flagDevice   = "device"
	flagDebug    = "debug"
)

var rootCmd = &cobra.Command{
	Use:          "slcand",
	Short:        "Serial line CAN bridge",
	Long:         "Exposes a CAN device over the Lawicel/SLCAN ASCII serial protocol",
	SilenceUsage: true,
	RunE:         run,
}

// Execute runs the root command. Called by main.main().
func Execute(ctx context.Context) {
	rootCmd.ExecuteContext(ctx)
}

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagConfig, "c", "", "config file")
	pf.StringP(flagPort, "p", "", "com-port, * = print available")
	pf.IntP(flagBaudrate, "b", 0, "baudrate")
	pf.StringP(flagDevice, "a", "", "CAN device backend: "+strings.Join(slcand.ListDevices(), ", "))
	pf.BoolP(flagDebug, "d", false, "debug mode")
}

func run(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	configFile, _ := flags.GetString(flagConfig)
	cfg, err := slcand.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if v, _ := flags.GetString(flagPort); v != "" {
		cfg.Serial.Port = v
	}
	if v, _ := flags.GetInt(flagBaudrate); v != 0 {
		cfg.Serial.Baudrate = v
	}
	if v, _ := flags.GetString(flagDevice); v != "" {
		cfg.CAN.Device = v
	}
	if v, _ := flags.GetBool(flagDebug); v {
		cfg.Debug = true
	}

	if cfg.Serial.Port == "*" {
		ports, err := slcand.ListPorts()
		if err != nil {
			return err
		}
		log.Println("available ports:", strings.Join(ports, ", "))
		return nil
	}

	port, err := slcand.OpenPort(cfg.Serial.Port, cfg.Serial.Baudrate)
	if err != nil {
		return err
	}
	defer port.Close()

	dev, err := slcand.OpenDevice(cfg.CAN.Device, &slcand.DeviceConfig{
		Interface: cfg.CAN.Interface,
		OnMessage: func(s string) { log.Println(s) },
	})
	if err != nil {
		return err
	}
	defer dev.Close()

	bus := slcand.NewController(dev, cfg.CAN.ClockHz)
	engine := slcand.NewEngine(bus)
	bridge := slcand.NewBridge(engine, port, slcand.BridgeConfig{
		Debug:     cfg.Debug,
		OnMessage: func(s string) { log.Println(s) },
	})

	log.Printf("slcand up: serial %s @ %d, CAN device %q", cfg.Serial.Port, cfg.Serial.Baudrate, cfg.CAN.Device)
	if err := bridge.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
