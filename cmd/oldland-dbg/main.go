package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
	"github.com/ycyang0508/oldland-cpu/oldland/debug"
	"github.com/ycyang0508/oldland-cpu/oldland/memory"
)

func main() {
	app := cli.NewApp()
	app.Name = "oldland-dbg"
	app.Description = "Remote debugger for the Oldland CPU simulator"
	app.Usage = "oldland-dbg --connect <address>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "connect",
			Usage: "Address of the simulator's debug server",
			Value: "127.0.0.1:3333",
		},
	}
	app.Action = runDebugger

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running debugger", "error", err)
		os.Exit(1)
	}
}

func runDebugger(c *cli.Context) error {
	client, err := debug.Dial(c.String("connect"))
	if err != nil {
		return err
	}
	defer client.Close()

	id, err := client.CPUID()
	if err != nil {
		return err
	}
	fmt.Printf("Connected to Oldland CPU (cpuid 0x%08X)\n", id)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("dbg> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		quit, err := dispatch(client, fields[0], fields[1:])
		if err != nil {
			fmt.Println("error:", err)
		}
		if quit {
			return nil
		}
	}
}

func dispatch(client *debug.Client, cmd string, args []string) (quit bool, err error) {
	switch cmd {
	case "help", "?":
		printHelp()
	case "stop", "halt":
		err = client.Stop()
	case "run", "go":
		err = client.Run()
	case "step", "s":
		err = step(client, args)
	case "regs":
		err = printRegs(client)
	case "read":
		err = readReg(client, args)
	case "write":
		err = writeReg(client, args)
	case "rmem8", "rmem16", "rmem32":
		err = readMem(client, memWidth(cmd), args)
	case "wmem8", "wmem16", "wmem32":
		err = writeMem(client, memWidth(cmd), args)
	case "reset":
		err = client.Reset()
	case "sync":
		err = client.CacheSync()
	case "cpuid":
		var id uint32
		if id, err = client.CPUID(); err == nil {
			fmt.Printf("0x%08X\n", id)
		}
	case "status":
		var mask uint32
		if mask, err = client.ExecStatus(); err == nil {
			fmt.Println(statusString(mask))
		}
	case "trace":
		err = client.StartTrace()
	case "monitor", "mon":
		err = runMonitor(client)
	case "term":
		err = client.Term()
		quit = err == nil
	case "quit", "exit", "q":
		quit = true
	default:
		fmt.Printf("unknown command %q, try help\n", cmd)
	}
	return quit, err
}

func printHelp() {
	fmt.Print(`commands:
  stop | run | step [n] | reset | sync | trace
  regs                      dump all registers
  read <reg>                read a register (r0-r5, fp, sp, pc)
  write <reg> <value>       write a register
  rmem8|rmem16|rmem32 <addr>
  wmem8|wmem16|wmem32 <addr> <value>
  cpuid | status
  monitor                   live register/memory view
  term                      shut the simulator down
  quit
`)
}

func step(client *debug.Client, args []string) error {
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("step: bad count %q", args[0])
		}
		count = n
	}
	for i := 0; i < count; i++ {
		if err := client.Step(); err != nil {
			return err
		}
	}
	return printRegs(client)
}

func printRegs(client *debug.Client) error {
	for r := cpu.R0; r <= cpu.PC; r++ {
		v, err := client.ReadReg(r)
		if err != nil {
			return err
		}
		fmt.Printf("%-3s 0x%08X", r, v)
		if r%4 == 3 || r == cpu.PC {
			fmt.Println()
		} else {
			fmt.Print("   ")
		}
	}
	return nil
}

func readReg(client *debug.Client, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: read <reg>")
	}
	r, ok := cpu.ParseRegister(args[0])
	if !ok {
		return fmt.Errorf("unknown register %q", args[0])
	}
	v, err := client.ReadReg(r)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t0x%08X\n", r, v)
	return nil
}

func writeReg(client *debug.Client, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: write <reg> <value>")
	}
	r, ok := cpu.ParseRegister(args[0])
	if !ok {
		return fmt.Errorf("unknown register %q", args[0])
	}
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}
	return client.WriteReg(r, v)
}

func readMem(client *debug.Client, width memory.Width, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: rmem <addr>")
	}
	addr, err := parseValue(args[0])
	if err != nil {
		return err
	}
	v, err := client.ReadMem(addr, width)
	if err != nil {
		return err
	}
	fmt.Printf("0x%08X\t0x%0*X\n", addr, int(width.Bytes())*2, v)
	return nil
}

func writeMem(client *debug.Client, width memory.Width, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: wmem <addr> <value>")
	}
	addr, err := parseValue(args[0])
	if err != nil {
		return err
	}
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}
	return client.WriteMem(addr, width, v)
}

func memWidth(cmd string) memory.Width {
	switch {
	case strings.HasSuffix(cmd, "8"):
		return memory.Width8
	case strings.HasSuffix(cmd, "16"):
		return memory.Width16
	default:
		return memory.Width32
	}
}

func parseValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	return uint32(v), nil
}

func statusString(mask uint32) string {
	switch {
	case mask&debug.ExecStatusRunning != 0:
		return "running"
	case mask&debug.ExecStatusStoppedOnBkpt != 0:
		return "stopped on breakpoint"
	default:
		return "stopped"
	}
}
