package debug

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Request is a single debugger access to one of the window registers.
// Addr is the window register index, not a memory address.
type Request struct {
	Addr         uint32
	Value        uint32
	ReadNotWrite bool
}

// Response carries the result of exactly one request. A nonzero status
// means the request was rejected and Data is meaningless.
type Response struct {
	Status int32
	Data   uint32
}

// Wire format: packed little-endian structs, 9 bytes per request
// (addr:u32, value:u32, read_not_write:u8) and 8 bytes per response
// (status:i32, data:u32). The layout is a stable contract with external
// debuggers.
const (
	requestWireSize  = 9
	responseWireSize = 8
)

// WriteRequest encodes a request onto w.
func WriteRequest(w io.Writer, req Request) error {
	var buf [requestWireSize]byte
	binary.LittleEndian.PutUint32(buf[0:], req.Addr)
	binary.LittleEndian.PutUint32(buf[4:], req.Value)
	if req.ReadNotWrite {
		buf[8] = 1
	}
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write debug request: %w", err)
	}
	return nil
}

// ReadRequest decodes a single request from r.
func ReadRequest(r io.Reader) (Request, error) {
	var buf [requestWireSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Request{}, fmt.Errorf("read debug request: %w", err)
	}
	return Request{
		Addr:         binary.LittleEndian.Uint32(buf[0:]),
		Value:        binary.LittleEndian.Uint32(buf[4:]),
		ReadNotWrite: buf[8] != 0,
	}, nil
}

// WriteResponse encodes a response onto w.
func WriteResponse(w io.Writer, resp Response) error {
	var buf [responseWireSize]byte
	binary.LittleEndian.PutUint32(buf[0:], uint32(resp.Status))
	binary.LittleEndian.PutUint32(buf[4:], resp.Data)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write debug response: %w", err)
	}
	return nil
}

// ReadResponse decodes a single response from r.
func ReadResponse(r io.Reader) (Response, error) {
	var buf [responseWireSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Response{}, fmt.Errorf("read debug response: %w", err)
	}
	return Response{
		Status: int32(binary.LittleEndian.Uint32(buf[0:])),
		Data:   binary.LittleEndian.Uint32(buf[4:]),
	}, nil
}
