package main

import (
	"fmt"

	"github.com/fatih/color"
)

const helpString = `Android screen mirroring over adb

Usage: alohacast [OPTION]...

Device:
  -s, --serial=SERIAL    Device serial number (default: the only attached device)
      --adb-address=ADDR adb server address (default: 127.0.0.1:5037)

Capture:
  -m, --mode=MODE        h264 (live stream), raw, jpeg or png (screenshots)
                           (default: h264)
  -x, --width=NUM        Frame width (default: 720)
  -y, --height=NUM       Frame height (default: 1280)
  -i, --interval=DUR     Delay between screenshots (default: 100ms)
  -n, --count=NUM        Stop after this many screenshots (default: unlimited)
  -c, --config=FILE      Read settings from a YAML file; flags take precedence

Output:
  -l, --listen=ADDR      Serve the live view and /metrics here (default: :8000)
  -o, --output=DIR       Also write every frame to DIR as PNG

Miscellaneous:
  -h, --help             Prints this help message and exits
  -v, --version          Prints version information and exits

Logging is controlled by the LOGLEVEL environment variable, e.g.
LOGLEVEL=debug or LOGLEVEL=info,adb=debug.

Please report bugs to: aloha@lanikailabs.com`

// Help information is printed and program exits
func help() {
	r := color.New(color.FgRed)
	y := color.New(color.FgYellow)
	b := color.New(color.FgCyan)

	//         _         _
	//   __ _ | |  ___  | |__    __ _   ___  __ _  ___ | |_
	//  / _` || | / _ \ | '_ \  / _` | / __|/ _` |/ __|| __|
	// | (_| || || (_) || | | || (_| || (__| (_| |\__ \| |_
	//  \__,_||_| \___/ |_| |_| \__,_| \___|\__,_||___/ \__|

	// Line 1
	r.Printf("        ")
	y.Printf(" _ ")
	b.Printf("       ")
	y.Println(" _ ")

	// Line 2
	r.Printf("   __ _ ")
	y.Printf("| |")
	b.Printf("  ___  ")
	y.Printf("| |__  ")
	r.Printf("  __ _ ")
	y.Printf("  ___  __ _  ___ ")
	b.Println("| |_ ")

	// Line 3
	r.Printf("  / _` |")
	y.Printf("| |")
	b.Printf(" / _ \\ ")
	y.Printf("| '_ \\ ")
	r.Printf(" / _` |")
	y.Printf(" / __|/ _` |/ __|")
	b.Println("| __|")

	// Line 4
	r.Printf(" | (_| |")
	y.Printf("| |")
	b.Printf("| (_) |")
	y.Printf("| | | |")
	r.Printf("| (_| |")
	y.Printf("| (__| (_| |\\__ \\")
	b.Println("| |_ ")

	// Line 5
	r.Printf("  \\__,_|")
	y.Printf("|_|")
	b.Printf(" \\___/ ")
	y.Printf("|_| |_|")
	r.Printf(" \\__,_|")
	y.Printf(" \\___|\\__,_||___/")
	b.Println(" \\__|")

	fmt.Println(helpString)
}

// version displays information and exits successfully (GNU convention)
func version() {
	fmt.Println("alohacast", GitTag, GitRevisionId)
	fmt.Println("Copyright 2019 Lanikai Labs LLC. All rights reserved.")
}
