// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/tap_controller/internal/calibration"
	"github.com/relabs-tech/tap_controller/internal/config"
	"github.com/relabs-tech/tap_controller/internal/direction"
	"github.com/relabs-tech/tap_controller/internal/engine"
)

const (
	displayW     = 128
	displayH     = 64
	displayChars = displayW / 7
)

// addrBus pins every transaction to one address so the SSD1306 driver
// can reach a display strapped to something other than 0x3C.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// displayStatus is what the OLED shows.
type displayStatus struct {
	bounds     direction.Bounds
	haveBounds bool
	calibrated bool

	last     direction.Direction
	lastAng  float64
	haveLast bool

	calibrating bool
	message     string
}

// DisplayData holds the latest data for display.
type DisplayData struct {
	mu sync.RWMutex
	st displayStatus
}

func (d *DisplayData) snapshot() displayStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.st
}

func (d *DisplayData) onEvent(ev engine.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Kind {
	case engine.KindDirection:
		d.st.last = ev.Dir()
		d.st.lastAng = ev.Angle
		d.st.haveLast = true
	case engine.KindPrompt:
		d.st.calibrating = ev.Prompt == calibration.PromptTapRight || ev.Prompt == calibration.PromptTapLeft
		d.st.message = ev.Message
	case engine.KindCalibrationTap:
		d.st.message = ev.Message
	case engine.KindCalibrationComplete:
		d.st.calibrating = false
		d.st.message = ev.Message
		switch {
		case ev.Result != nil && ev.Result.Err != nil:
			d.st.message = "Not saved!"
		case ev.Warning != "":
			d.st.message = "Check bounds!"
		}
	}
}

func (d *DisplayData) onBounds(st BoundsStatus) {
	d.mu.Lock()
	d.st.bounds = st.Bounds
	d.st.calibrated = st.Calibrated
	d.st.haveBounds = true
	d.mu.Unlock()
}

// RunDisplay shows the last direction and the calibration prompts on an
// SSD1306 OLED.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(addrBus{Bus: bus, addr: cfg.DisplayI2CAddr}, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	onEvent := func(_ mqtt.Client, msg mqtt.Message) {
		var ev engine.Event
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("display: %s unmarshal error: %v", msg.Topic(), err)
			return
		}
		data.onEvent(ev)
	}
	for _, topic := range []string{cfg.TopicDirection, cfg.TopicCalibration} {
		token := client.Subscribe(topic, 0, onEvent)
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		log.Printf("display: subscribed to %s", topic)
	}

	boundsTopic := BoundsTopic(cfg)
	token := client.Subscribe(boundsTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st BoundsStatus
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("display: bounds unmarshal error: %v", err)
			return
		}
		data.onBounds(st)
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", boundsTopic, token.Error())
	}
	log.Printf("display: subscribed to %s", boundsTopic)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		img := newFrame()
		renderStatus(img, data.snapshot())
		if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func newFrame() *image1bit.VerticalLSB {
	return image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
}

func drawLine(img *image1bit.VerticalLSB, x, y int, s string) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(fitLine(s))
}

// fitLine trims s to what one row of Face7x13 can hold.
func fitLine(s string) string {
	r := []rune(s)
	if len(r) <= displayChars {
		return s
	}
	return string(r[:displayChars-1]) + "~"
}

func renderStatus(img *image1bit.VerticalLSB, st displayStatus) {
	if st.haveBounds {
		mark := "*"
		if st.calibrated {
			mark = ""
		}
		drawLine(img, 0, 13, fmt.Sprintf("R>%.0f L<%.0f%s", st.bounds.Right, st.bounds.Left, mark))
	} else {
		drawLine(img, 0, 13, "Bounds: waiting")
	}

	switch {
	case st.calibrating || st.message != "" && !st.haveLast:
		drawLine(img, 0, 32, "Calibration")
		drawLine(img, 0, 52, st.message)
	case st.haveLast:
		var arrow string
		switch st.last {
		case direction.Left:
			arrow = "<< LEFT"
		case direction.Right:
			arrow = "RIGHT >>"
		default:
			arrow = "CENTER"
		}
		drawLine(img, 30, 36, arrow)
		drawLine(img, 0, 56, fmt.Sprintf("%.1f deg", st.lastAng))
	default:
		drawLine(img, 0, 39, "Waiting...")
	}
}

func showSplash(dev *ssd1306.Dev) error {
	img := newFrame()
	drawLine(img, 10, 26, "Tap Controller")
	drawLine(img, 25, 48, "Relabs")
	return dev.Draw(dev.Bounds(), img, image.Point{})
}
