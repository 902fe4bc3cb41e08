// Exhibit Probe - queries a running station for headset capabilities.
// Prints whether a device is attached and which immersive modes it grants,
// in the order the station will try them. Exits non-zero when no immersive
// mode is available.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/exhibitxr/go-exhibit/internal/config"
	"github.com/exhibitxr/go-exhibit/internal/httpc"
)

var (
	hostAddr = flag.String("host", config.HostAddr("localhost:8090"), "station address")
	doStart  = flag.Bool("start", false, "press the start affordance after probing")
	verbose  = flag.Bool("v", false, "print bridge counters")
)

func main() {
	flag.Parse()
	base := fmt.Sprintf("http://%s/api", *hostAddr)

	fmt.Println("🔍 Exhibit Probe")
	fmt.Printf("Station: %s\n\n", *hostAddr)

	var status struct {
		HeadsetConnected bool   `json:"headset_connected"`
		DeviceID         string `json:"device_id"`
		Passthrough      bool   `json:"passthrough"`
		Opaque           bool   `json:"opaque"`
		SessionActive    bool   `json:"session_active"`
		SessionMode      string `json:"session_mode"`
		Exhibit          string `json:"exhibit"`
		Status           string `json:"status"`
	}
	if err := httpc.GetJSON(base+"/status", &status); err != nil {
		fmt.Printf("❌ Station unreachable: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exhibit:  %s\n", status.Exhibit)
	fmt.Printf("Banner:   %s\n", status.Status)
	if !status.HeadsetConnected {
		fmt.Println("\n❌ No headset attached")
		os.Exit(1)
	}
	fmt.Printf("Headset:  %s\n", status.DeviceID)

	fmt.Println("\nImmersive modes, in the order the station tries them:")
	switch {
	case status.Passthrough && status.Opaque:
		fmt.Println("   1. passthrough")
		fmt.Println("   2. opaque (fallback)")
	case status.Passthrough:
		fmt.Println("   1. passthrough")
	case status.Opaque:
		fmt.Println("   1. opaque")
	default:
		fmt.Println("   none")
		fmt.Println("\n❌ Device grants no immersive mode")
		os.Exit(1)
	}

	if status.SessionActive {
		fmt.Printf("\nSession already running (%s)\n", status.SessionMode)
	}

	if *verbose {
		var device map[string]interface{}
		if err := httpc.GetJSON(base+"/device", &device); err != nil {
			fmt.Printf("\n❌ Bridge counters unavailable: %v\n", err)
		} else {
			fmt.Println("\nBridge counters:")
			for _, k := range []string{
				"frames_received", "frames_dropped", "rtc_active",
				"rtc_frames_received", "messages_received", "messages_sent", "selects",
			} {
				fmt.Printf("   %-20s %v\n", k, device[k])
			}
		}
	}

	if *doStart {
		var reply struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}
		if err := httpc.PostJSON(base+"/start", &reply); err != nil {
			fmt.Printf("\n❌ Start failed: %v\n", err)
			os.Exit(1)
		}
		if !reply.OK {
			fmt.Printf("\n❌ Start refused: %s\n", reply.Error)
			os.Exit(1)
		}
		fmt.Println("\n🚀 Session start requested")
	}
}
