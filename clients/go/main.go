// speedq-router - Command line router stand-in for a speedq server
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/eldtechnologies/speedq/clients/go/speedq"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("SPEEDQ_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	client := speedq.NewClient(baseURL, os.Getenv("ROUTER_SECRET"))
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "poll":
		resp, err := client.Poll()
		exitOnError(err)
		if len(resp.Commands) == 0 {
			fmt.Println("No pending commands")
			return
		}
		for _, c := range resp.Commands {
			fmt.Printf("  %s  %-10s %-16s %s\n", c.ID, c.Type, c.Username, c.Speed)
		}

	case "confirm":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: speedq-router confirm <command_id> [error]")
			os.Exit(1)
		}
		errText := ""
		if len(os.Args) > 3 {
			errText = strings.Join(os.Args[3:], " ")
		}
		exitOnError(client.Confirm(os.Args[2], errText == "", errText))
		fmt.Println("Confirmed:", os.Args[2])

	case "push":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: speedq-router push <user=speed>...")
			os.Exit(1)
		}
		sessions, err := parseSessions(os.Args[2:])
		exitOnError(err)
		n, err := client.PushUsers(sessions, nil)
		exitOnError(err)
		fmt.Printf("Pushed: %d users\n", n)

	case "request":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: speedq-router request <username> <speed>")
			os.Exit(1)
		}
		resp, err := client.RequestSpeed(os.Args[2], os.Args[3], "")
		exitOnError(err)
		printJSON(resp)

	case "disconnect":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: speedq-router disconnect <username>")
			os.Exit(1)
		}
		resp, err := client.Disconnect(os.Args[2])
		exitOnError(err)
		printJSON(resp)

	case "speed":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: speedq-router speed <username>")
			os.Exit(1)
		}
		speed, err := client.DesiredSpeed(os.Args[2])
		exitOnError(err)
		fmt.Println(speed)

	case "stats":
		resp, err := client.Stats()
		exitOnError(err)
		printJSON(resp)

	case "simulate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: speedq-router simulate <user=speed>...")
			os.Exit(1)
		}
		sessions, err := parseSessions(os.Args[2:])
		exitOnError(err)
		initial := make(map[string]string, len(sessions))
		for _, s := range sessions {
			initial[s.Username] = s.Speed
		}
		router := speedq.NewRouter(client, initial)
		for {
			res, err := router.Cycle()
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			} else if res.Applied+res.Failed > 0 {
				fmt.Printf("[%s] applied=%d failed=%d users=%d\n",
					time.Now().Format("15:04:05"), res.Applied, res.Failed, res.Sessions)
			}
			time.Sleep(5 * time.Second)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func parseSessions(args []string) ([]speedq.Session, error) {
	out := make([]speedq.Session, 0, len(args))
	for _, a := range args {
		user, speed, ok := strings.Cut(a, "=")
		if !ok || user == "" {
			return nil, fmt.Errorf("invalid session %q, want user=speed", a)
		}
		out = append(out, speedq.Session{Username: user, Speed: speed})
	}
	return out, nil
}

func usage() {
	fmt.Println(`speedq-router - router stand-in for a speedq server

Usage: speedq-router <command> [options]

Commands:
  poll                        Drain and print pending commands
  confirm <id> [error]        Confirm a command (failed when error is given)
  push <user=speed>...        Push a session table
  simulate <user=speed>...    Poll, apply, confirm and push every 5s
  request <username> <speed>  Request a speed as the portal would
  disconnect <username>       Queue a disconnect as the dashboard would
  speed <username>            Print the desired speed
  stats                       Show queue and session counters
  health                      Check server health

Environment:
  SPEEDQ_URL     Server URL (default: http://localhost:3000)
  ROUTER_SECRET  Shared router secret`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
