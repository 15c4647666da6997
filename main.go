package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v9"
	tea "github.com/charmbracelet/bubbletea"

	"tunedial/audio"
	"tunedial/beep"
	"tunedial/doctor"
	"tunedial/log"
	"tunedial/recognizer"
	"tunedial/recorder"
	"tunedial/shutdown"
)

var version = "dev"

type envConfig struct {
	BackendURL string `env:"TUNEDIAL_BACKEND_URL" envDefault:"http://localhost:8001"`
	OutputDir  string `env:"TUNEDIAL_OUTPUT_DIR" envDefault:"."`
}

func main() {
	backendFlag := flag.String("backend", "", "Recognition backend base URL (overrides TUNEDIAL_BACKEND_URL)")
	outputFlag := flag.String("output", "", "Directory for extracted clips (overrides TUNEDIAL_OUTPUT_DIR)")
	formatFlag := flag.String("format", "wav", "Recording upload format: wav or flac")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	muteFlag := flag.Bool("mute", false, "Disable audible cues")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("tunedial %s\n", version)
		os.Exit(0)
	}

	switch *formatFlag {
	case "wav", "flac":
	default:
		fmt.Printf("Error: unknown format %q (use wav or flac)\n", *formatFlag)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: parsing environment: %v\n", err)
		os.Exit(1)
	}
	if *backendFlag != "" {
		cfg.BackendURL = *backendFlag
	}
	if *outputFlag != "" {
		cfg.OutputDir = *outputFlag
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if *doctorFlag {
		os.Exit(doctor.Run(cfg.BackendURL, cfg.OutputDir))
	}

	if *muteFlag {
		beep.Disable()
	} else {
		go beep.Init()
	}

	client := recognizer.New(recognizer.Config{
		BaseURL:   cfg.BackendURL,
		OutputDir: cfg.OutputDir,
	})

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Printf("Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = selectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	log.SessionStart(cfg.BackendURL, *formatFlag)

	m := newTUIModel(client, func() *recorder.Session {
		return recorder.NewSession(actx, recorder.Config{
			Device: selectedDevice,
			Format: *formatFlag,
			OnLevel: func(rms float64) {
				tuiSend(levelMsg{level: rms})
			},
		})
	})
	m.deviceLine = deviceLineText(selectedDevice)

	p := tea.NewProgram(m, tea.WithAltScreen())
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		p.Quit()
	}()

	final, err := p.Run()
	if err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Release the microphone if the user quit mid-recording.
	if fm, ok := final.(tuiModel); ok {
		if fm.session != nil {
			fm.session.Abort()
		}
		log.SessionEnd(fm.recognitions)
	}
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	return "mic: " + name
}
