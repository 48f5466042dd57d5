package debug

import (
	"fmt"
	"net"

	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
	"github.com/ycyang0508/oldland-cpu/oldland/memory"
)

// Client is the debugger side of the wire protocol. Every operation is
// one or more window-register accesses, each answered by exactly one
// response.
type Client struct {
	conn net.Conn
}

// Dial connects to a simulator's debug server.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("debug dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Do performs one raw window access.
func (c *Client) Do(req Request) (Response, error) {
	if err := WriteRequest(c.conn, req); err != nil {
		return Response{}, err
	}
	return ReadResponse(c.conn)
}

func (c *Client) writeWindow(reg WindowRegister, value uint32) error {
	resp, err := c.Do(Request{Addr: uint32(reg), Value: value})
	if err != nil {
		return err
	}
	if resp.Status != StatusOK {
		return fmt.Errorf("write window register %d: status %d", reg, resp.Status)
	}
	return nil
}

// command latches the operands and fires cmd, returning its data.
func (c *Client) command(cmd Command, address, wdata uint32) (uint32, error) {
	if err := c.writeWindow(RegAddress, address); err != nil {
		return 0, err
	}
	if err := c.writeWindow(RegWdata, wdata); err != nil {
		return 0, err
	}
	resp, err := c.Do(Request{Addr: uint32(RegCmd), Value: uint32(cmd)})
	if err != nil {
		return 0, err
	}
	if resp.Status != StatusOK {
		return 0, fmt.Errorf("%s: status %d", cmd, resp.Status)
	}
	return resp.Data, nil
}

func (c *Client) Stop() error {
	_, err := c.command(CmdStop, 0, 0)
	return err
}

func (c *Client) Run() error {
	_, err := c.command(CmdRun, 0, 0)
	return err
}

// Step executes exactly one instruction and stops.
func (c *Client) Step() error {
	_, err := c.command(CmdStep, 0, 0)
	return err
}

func (c *Client) ReadReg(r cpu.Register) (uint32, error) {
	return c.command(CmdReadReg, uint32(r), 0)
}

func (c *Client) WriteReg(r cpu.Register, value uint32) error {
	_, err := c.command(CmdWriteReg, uint32(r), value)
	return err
}

func (c *Client) ReadMem(addr uint32, width memory.Width) (uint32, error) {
	return c.command(readMemCommand(width), addr, 0)
}

func (c *Client) WriteMem(addr uint32, width memory.Width, value uint32) error {
	_, err := c.command(writeMemCommand(width), addr, value)
	return err
}

func (c *Client) Reset() error {
	_, err := c.command(CmdReset, 0, 0)
	return err
}

func (c *Client) CacheSync() error {
	_, err := c.command(CmdCacheSync, 0, 0)
	return err
}

func (c *Client) CPUID() (uint32, error) {
	return c.command(CmdCpuid, 0, 0)
}

// ExecStatus returns the execution-status bitmask.
func (c *Client) ExecStatus() (uint32, error) {
	return c.command(CmdGetExecStatus, 0, 0)
}

func (c *Client) StartTrace() error {
	_, err := c.command(CmdStartTrace, 0, 0)
	return err
}

// Term asks the simulator process to shut down.
func (c *Client) Term() error {
	_, err := c.command(CmdSimTerm, 0, 0)
	return err
}

func readMemCommand(w memory.Width) Command {
	switch w {
	case memory.Width8:
		return CmdRmem8
	case memory.Width16:
		return CmdRmem16
	default:
		return CmdRmem32
	}
}

func writeMemCommand(w memory.Width) Command {
	switch w {
	case memory.Width8:
		return CmdWmem8
	case memory.Width16:
		return CmdWmem16
	default:
		return CmdWmem32
	}
}
