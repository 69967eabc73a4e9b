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

// HTTP server for robot status

package robot

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/aamcrae/rosbridge/encoder"
	"github.com/aamcrae/rosbridge/motor"
	"github.com/fogleman/gg"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font/basicfont"
)

const (
	imgWidth  = 480
	imgHeight = 200
	barHeight = 24
	midX      = imgWidth / 2
	barScale  = imgWidth/2 - 20
)

// StatusServer serves the status of the robot on the port.
func StatusServer(port int, r *Robot) {
	url := fmt.Sprintf(":%d", port)
	log.Printf("Starting status server on %s", url)
	server := &http.Server{Addr: url, Handler: StatusHandler(r.Encoders, r.Motors)}
	log.Fatal(server.ListenAndServe())
}

// StatusHandler returns a handler serving the encoder counts and
// motor speeds as text (/status) and as an image (/status.png).
func StatusHandler(e *encoder.Encoders, m *motor.Controller) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		st := m.State()
		for i := 0; i < encoder.MaxChannels; i++ {
			fmt.Fprintf(w, "encoder %d: %d\n", i, e.Read(encoder.Channel(i)))
		}
		for i, s := range st {
			fmt.Fprintf(w, "motor %d: speed %d direction %d duty %d\n", i, s.Speed, s.Direction, s.Duty)
		}
	})
	mux.HandleFunc("/status.png", func(w http.ResponseWriter, req *http.Request) {
		var b bytes.Buffer
		if err := render(e, m).EncodePNG(&b); err != nil {
			log.Printf("Error encoding image: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(b.Bytes())
	})
	return mux
}

// render draws a bar for each motor, extending right for forward
// and left for reverse, and the current encoder counts.
func render(e *encoder.Encoders, m *motor.Controller) *gg.Context {
	c := gg.NewContext(imgWidth, imgHeight)
	c.SetRGB(1, 1, 1)
	c.Clear()
	c.SetFontFace(basicfont.Face7x13)
	st := m.State()
	y := 20.0
	for i, s := range st {
		w := float64(s.Duty) * barScale / float64(m.Max())
		if s.Direction < 0 {
			c.SetRGB(0.8, 0, 0)
			c.DrawRectangle(midX-w, y, w, barHeight)
		} else {
			c.SetRGB(0, 0.6, 0)
			c.DrawRectangle(midX, y, w, barHeight)
		}
		c.Fill()
		c.SetRGB(0, 0, 0)
		c.DrawString(fmt.Sprintf("motor %d: %d", i, s.Speed), 10, y+barHeight+14)
		y += barHeight + 30
	}
	c.SetLineWidth(1)
	c.DrawLine(midX, 10, midX, y-16)
	c.Stroke()
	for i := 0; i < encoder.MaxChannels; i++ {
		c.DrawString(fmt.Sprintf("encoder %d: %d", i, e.Read(encoder.Channel(i))), 10, y)
		y += 18
	}
	return c
}
