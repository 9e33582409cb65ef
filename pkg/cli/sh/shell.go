package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/shdlc.go/pkg/env"
	fx "github.com/robotalks/shdlc.go/pkg/framework"
	"github.com/robotalks/shdlc.go/pkg/sensor/sf06"
	"github.com/robotalks/shdlc.go/pkg/serialport"
	"github.com/robotalks/shdlc.go/pkg/shdlc"
	"github.com/robotalks/shdlc.go/pkg/shdlc/policy"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Link   *Link
}

// Link is an opened device.
type Link struct {
	Name     string
	Cancel   func()
	Conn     *shdlc.Conn
	Executor shdlc.Executor
	Meter    *sf06.FlowMeter
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&RawCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpened wraps command func requires an opened device.
func MustBeOpened(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(fmt.Errorf("device not opened"))
			return
		}
		fn(c)
	}
}

// MeterFrom gets the FlowMeter of the opened device.
func MeterFrom(c *ishell.Context) *sf06.FlowMeter {
	return ShellFrom(c).Link.Meter
}

// FormatResult formats a command result for display.
func FormatResult(result interface{}, asJSON bool) (string, error) {
	if bs, ok := result.([]byte); ok {
		if asJSON {
			result = hex.EncodeToString(bs)
		} else {
			return fmt.Sprintf("% x", bs), nil
		}
	}
	if asJSON {
		out, err := json.Marshal(map[string]interface{}{"result": result})
		return string(out), err
	}
	if result == nil {
		return "OK", nil
	}
	return fmt.Sprintf("%v", result), nil
}

// Print prints a result in the output format of the shell.
func Print(c *ishell.Context, result interface{}) {
	out, err := FormatResult(result, ShellFrom(c).OutputJSON)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(out)
}

// DoCommand executes a command on the opened device and prints the result.
func DoCommand(c *ishell.Context, cmd shdlc.Command) (interface{}, error) {
	s := ShellFrom(c)
	if s.Link == nil {
		err := fmt.Errorf("device not opened")
		c.Err(err)
		return nil, err
	}
	result, err := s.Link.Executor.Execute(context.Background(), cmd)
	if err != nil {
		c.Err(err)
		return nil, err
	}
	Print(c, result)
	return result, nil
}

// ParseByte parses a byte in decimal or 0x prefixed hex.
func ParseByte(str string) (byte, error) {
	n, err := strconv.ParseUint(str, 0, 8)
	if err != nil {
		return 0, err
	}
	return byte(n), nil
}

// ParseHexData parses data from hex strings, spaces and colons ignored.
func ParseHexData(args ...string) ([]byte, error) {
	str := strings.NewReplacer(" ", "", ":", "").Replace(strings.Join(args, ""))
	return hex.DecodeString(str)
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the device on a serial port.
func (s *Shell) Open(path string) error {
	conf := *s.Config
	conf.Serial.Path = path
	conn, err := conf.OpenConn()
	if err != nil {
		return err
	}
	s.Attach(path, conn)
	return nil
}

// Attach uses conn as the opened device and runs it until closed.
func (s *Shell) Attach(name string, conn *shdlc.Conn) {
	s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	retry := policy.NewRetry(s.Config.NewDevice(conn))
	s.Link = &Link{
		Name:     name,
		Cancel:   cancel,
		Conn:     conn,
		Executor: retry,
		Meter:    sf06.NewFlowMeter(retry),
	}
	go func() {
		err := fx.RunWithContextCloser(ctx, conn, func() error {
			return conn.Run(context.Background())
		})
		if err != nil && err != context.Canceled {
			glog.Errorf("%s: %v", name, err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
}

// Close closes the opened device.
func (s *Shell) Close() {
	if s.Link != nil {
		s.Link.Cancel()
		<-s.Link.Conn.Done()
		s.Link = nil
		s.Shell.SetPrompt(unopenedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Config.Validate(); err != nil {
		log.Fatalln(err)
	}
	if s.AutoOpen && s.Config.Serial.Path != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.Serial.Path)
		}
		if err := s.Open(s.Config.Serial.Path); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Serial.Path, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ports, err := serialport.List()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				if ports == nil {
					ports = []string{}
				}
				Print(c, ports)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a device.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[PORT]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			path := s.Config.Serial.Path
			if len(c.Args) > 0 {
				path = c.Args[0]
			}
			if path == "" {
				ports, err := serialport.List()
				if err != nil {
					c.Err(err)
					return
				}
				if len(ports) == 0 {
					c.Err(fmt.Errorf("no serial ports found"))
					return
				}
				if len(ports) > 1 && s.Interactive {
					path = ports[c.MultiChoice(ports, "Which one to open?")]
				} else {
					path = ports[0]
				}
			}
			if err := s.Open(path); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the opened device.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// RawCmd sends arbitrary command.
	RawCmd = ishell.Cmd{
		Name:    "raw",
		Aliases: []string{"r"},
		Help:    "ID [HEX...]",
		Func: MustBeOpened(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ID required"))
				return
			}
			id, err := ParseByte(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid ID: %v", err))
				return
			}
			data, err := ParseHexData(c.Args[1:]...)
			if err != nil {
				c.Err(fmt.Errorf("Invalid HEX: %v", err))
				return
			}
			DoCommand(c, &shdlc.RawCommand{CommandID: id, Data: data})
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.Default()).WithAutoOpen(true).Run(flag.Args()...)
}
