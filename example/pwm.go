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

// Program to ramp the motors of a robot forwards and backwards,
// showing the encoder counts.

//go:build ignore
// +build ignore

package main

import (
	"flag"
	"math"
	"time"

	"github.com/aamcrae/rosbridge/encoder"
	"github.com/aamcrae/rosbridge/robot"
	log "github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "robot.cfg", "Configuration file")
var cycles = flag.Int("cycles", 2, "Number of ramp cycles")

func main() {
	flag.Parse()
	conf, err := robot.ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	r, err := robot.NewRobot(conf, &robot.Sysfs{Software: conf.Motor.Pwm == robot.SwPWM})
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	defer r.Close()
	max := float64(r.Motors.Max())
	for i := 0; i < *cycles; i++ {
		for v := 0; v < 360; v += 5 {
			rad := float64(v) * math.Pi / 180
			spd := int(math.Sin(rad) * max)
			// With pulse encoders, the count direction follows the motor.
			dir := 1
			if spd < 0 {
				dir = -1
			}
			r.Encoders.SetDirection(encoder.Left, dir)
			r.Encoders.SetDirection(encoder.Right, -dir)
			if err := r.Motors.SetSpeeds(spd, -spd); err != nil {
				log.Fatalf("Set speed %d: %v", spd, err)
			}
			time.Sleep(time.Millisecond * 100)
		}
		log.Printf("cycle %d: encoders %d, %d", i, r.Encoders.Read(encoder.Left), r.Encoders.Read(encoder.Right))
	}
}
