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

// Robot encoder and motor daemon

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aamcrae/rosbridge/robot"
	log "github.com/sirupsen/logrus"
)

var configFile = flag.String("config", "robot.cfg", "Configuration file")
var port = flag.Int("port", 8080, "Status server port number (0 to disable)")
var debug = flag.Bool("debug", false, "Enable debug logging")

func main() {
	flag.Parse()
	if *debug {
		log.SetLevel(log.DebugLevel)
	}
	conf, err := robot.ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	r, err := robot.NewRobot(conf, &robot.Sysfs{Software: conf.Motor.Pwm == robot.SwPWM})
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	if *port != 0 {
		go robot.StatusServer(*port, r)
	}
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	s := <-stop
	log.Printf("%v: stopping motors", s)
	r.Close()
}
