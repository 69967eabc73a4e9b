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

// Program to demonstrate how to watch a quadrature encoder

//go:build ignore
// +build ignore

package main

import (
	"flag"
	"time"

	"github.com/aamcrae/rosbridge/encoder"
	"github.com/aamcrae/rosbridge/io"
	log "github.com/sirupsen/logrus"
)

var gpioA = flag.Int("a", 17, "GPIO pin for encoder line A")
var gpioB = flag.Int("b", 27, "GPIO pin for encoder line B")
var interval = flag.Duration("interval", time.Second, "Reporting interval")

func main() {
	flag.Parse()
	a, err := io.InputLine(*gpioA)
	if err != nil {
		log.Fatalf("Pin %d: %v", *gpioA, err)
	}
	defer a.Close()
	b, err := io.InputLine(*gpioB)
	if err != nil {
		log.Fatalf("Pin %d: %v", *gpioB, err)
	}
	defer b.Close()
	enc := encoder.New("watch", encoder.NewQuadrature())
	if err := enc.WatchQuadrature(encoder.Left, a, b, false); err != nil {
		log.Fatalf("%v", err)
	}
	var last int64
	for range time.Tick(*interval) {
		v := enc.Read(encoder.Left)
		log.Printf("count %d (%+d)", v, v-last)
		last = v
	}
}
