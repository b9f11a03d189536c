// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/tap_controller/internal/motion"
)

// TypeTAPS is the proprietary sentence a microcontroller IMU sends once
// per sample:
//
//	$PTAPS,<ax>,<ay>,<az>,<ex>,<ey>,<ez>*CS
//
// accel in m/s², Euler angles in degrees.
const TypeTAPS = "TAPS"

// TAPS is a parsed $PTAPS sentence.
type TAPS struct {
	nmea.BaseSentence
	Accel motion.Vec3
	Euler motion.Vec3
}

func parseTAPS(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	p.AssertType(TypeTAPS)
	m := TAPS{
		BaseSentence: s,
		Accel: motion.Vec3{
			X: p.Float64(0, "accel x"),
			Y: p.Float64(1, "accel y"),
			Z: p.Float64(2, "accel z"),
		},
		Euler: motion.Vec3{
			X: p.Float64(3, "euler x"),
			Y: p.Float64(4, "euler y"),
			Z: p.Float64(5, "euler z"),
		},
	}
	return m, p.Err()
}

var sentenceParser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypeTAPS: parseTAPS,
	},
}

// ParseTAPS parses one line into a sample stamped with at.
func ParseTAPS(line string, at time.Time) (motion.Sample, error) {
	sentence, err := sentenceParser.Parse(line)
	if err != nil {
		return motion.Sample{}, err
	}
	m, ok := sentence.(TAPS)
	if !ok {
		return motion.Sample{}, fmt.Errorf("unexpected sentence type %q", sentence.DataType())
	}
	return motion.Sample{
		LinearAcceleration: m.Accel,
		AttitudeEuler:      m.Euler,
		Time:               at,
	}, nil
}

type serialSource struct {
	*queue
	port io.ReadWriteCloser
}

// NewSerialSource opens the serial port and starts reading $PTAPS lines
// in the background.
func NewSerialSource(portName string, baud int) (motion.Source, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", portName, err)
	}
	log.Printf("serial: port opened on %s at %d baud", portName, baud)

	s := &serialSource{queue: newQueue(64), port: port}
	go s.readLoop(port)
	return s, nil
}

func (s *serialSource) readLoop(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("serial: read error, source stopped: %v", err)
			return
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sample, err := ParseTAPS(line, time.Now())
		if err != nil {
			// partial lines at startup are expected
			continue
		}
		s.push(sample)
	}
}

func (s *serialSource) Close() error {
	return s.port.Close()
}
