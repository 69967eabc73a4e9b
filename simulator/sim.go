// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Simulated robot. The motor outputs drive simulated wheels, which
// generate quadrature encoder edges.

package main

import (
	"errors"
	"flag"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aamcrae/rosbridge/encoder"
	"github.com/aamcrae/rosbridge/io"
	"github.com/aamcrae/rosbridge/robot"
	log "github.com/sirupsen/logrus"
)

var port = flag.Int("port", 8080, "Web server port number")
var rate = flag.Float64("rate", 400, "Encoder ticks per second at full speed")
var debug = flag.Bool("debug", false, "Enable debug logging")

const tick = time.Millisecond

// Simulated pins, by GPIO or PWM unit number.
var conf = robot.Config{
	Name: "sim",
	Encoder: &robot.EncoderConfig{
		Mode: robot.Quadrature,
		Gpio: [][]int{{17, 27}, {22, 23}},
	},
	Motor: &robot.MotorConfig{
		Driver: robot.L298,
		Pwm:    robot.HwPWM,
		Period: time.Millisecond,
		MaxPWM: 255,
		Pins:   [][]int{{0, 1, 13}, {2, 3, 12}},
	},
}

// SimPin is a simulated output pin or PWM unit.
type SimPin struct {
	value int64
}

func (p *SimPin) Set(v int) error {
	atomic.StoreInt64(&p.value, int64(v))
	return nil
}

func (p *SimPin) get() int {
	return int(atomic.LoadInt64(&p.value))
}

func (p *SimPin) Close() {
}

// SimLine is a simulated encoder line.
type SimLine struct {
	c     chan int
	level int64
	once  sync.Once
}

func (l *SimLine) Get() (int, error) {
	v, ok := <-l.c
	if !ok {
		return 0, errors.New("line closed")
	}
	return v, nil
}

func (l *SimLine) Level() (int, error) {
	return int(atomic.LoadInt64(&l.level)), nil
}

func (l *SimLine) set(v int) {
	atomic.StoreInt64(&l.level, int64(v))
	l.c <- v
}

func (l *SimLine) Close() {
	l.once.Do(func() { close(l.c) })
}

// SimHardware provides simulated I/O to the robot.
type SimHardware struct {
	mu    sync.Mutex
	pins  map[int]*SimPin
	pwms  map[int]*SimPin
	lines map[int]*SimLine
}

func (h *SimHardware) Input(gpio int) (encoder.Input, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	l := &SimLine{c: make(chan int, 1000)}
	h.lines[gpio] = l
	return l, nil
}

func (h *SimHardware) Output(gpio int) (io.Setter, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := new(SimPin)
	h.pins[gpio] = p
	return p, nil
}

func (h *SimHardware) PWM(unit int, period time.Duration, max int) (io.PWM, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := new(SimPin)
	h.pwms[unit] = p
	return p, nil
}

// Forward sequence of (A,B) states.
var sequence = [4][2]int{{0, 0}, {0, 1}, {1, 1}, {1, 0}}

// Wheel is a simulated wheel driven by a H-bridge,
// with a quadrature encoder.
type Wheel struct {
	name          string
	fwd, back, en *SimPin
	a, b          *SimLine
	max           float64
	pos           float64
	index         int
}

// run moves the wheel according to the motor outputs.
func (w *Wheel) run() {
	log.Printf("%s: wheel running at up to %.0f ticks/sec", w.name, *rate)
	ticker := time.NewTicker(tick)
	for range ticker.C {
		if w.en.get() == 0 {
			continue
		}
		speed := float64(w.fwd.get()-w.back.get()) / w.max
		w.pos += speed * *rate * tick.Seconds()
		for w.pos >= 1 {
			w.pos--
			w.step(1)
		}
		for w.pos <= -1 {
			w.pos++
			w.step(-1)
		}
	}
}

// step moves the encoder one state, changing one line.
func (w *Wheel) step(dir int) {
	cur := sequence[w.index]
	w.index = (w.index + dir + 4) % 4
	next := sequence[w.index]
	if cur[0] != next[0] {
		w.a.set(next[0])
	} else {
		w.b.set(next[1])
	}
}

func main() {
	flag.Parse()
	if *debug {
		log.SetLevel(log.DebugLevel)
	}
	hw := &SimHardware{pins: make(map[int]*SimPin), pwms: make(map[int]*SimPin), lines: make(map[int]*SimLine)}
	r, err := robot.NewRobot(&conf, hw)
	if err != nil {
		log.Fatalf("sim: %v", err)
	}
	defer r.Close()
	for i, p := range conf.Motor.Pins {
		g := conf.Encoder.Gpio[i]
		w := &Wheel{
			name: []string{"left", "right"}[i],
			fwd:  hw.pwms[p[0]],
			back: hw.pwms[p[1]],
			en:   hw.pins[p[2]],
			a:    hw.lines[g[0]],
			b:    hw.lines[g[1]],
			max:  float64(conf.Motor.MaxPWM),
		}
		go w.run()
	}
	go robot.StatusServer(*port, r)
	speeds := [][2]int{{100, 100}, {255, -255}, {-50, 300}, {0, 0}}
	for {
		for _, s := range speeds {
			if err := r.Motors.SetSpeeds(s[0], s[1]); err != nil {
				log.Fatalf("sim: %v", err)
			}
			time.Sleep(5 * time.Second)
			log.Printf("speeds %d, %d: encoders %d, %d", s[0], s[1],
				r.Encoders.Read(encoder.Left), r.Encoders.Read(encoder.Right))
		}
		r.Encoders.ResetAll()
	}
}
