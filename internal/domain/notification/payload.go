// internal/domain/notification/payload.go
package notification

import (
	"bytes"
	"fmt"
	"iss_overhead_notifier/internal/domain/tracking"
	"text/template"
	"time"
)

// Subject is used by channels that carry a separate subject line.
const Subject = "🛰️ ISS is Overhead!"

// Payload is what a notifier needs to build its message.
type Payload struct {
	Observer tracking.GeoCoordinate
	Position tracking.GeoCoordinate // ISS subpoint at the time of the tick
	SentAt   time.Time
}

var bodyTemplate = template.Must(template.New("body").Parse(`Hello Space Enthusiast! 🌌

The International Space Station (ISS) is currently passing overhead at your location!

📍 Your Location: {{.Observer}}
🛰️ ISS Position: {{.Position}}
🕐 Time: {{.SentAt.Format "2006-01-02 15:04:05"}} UTC
🌙 Conditions: Nighttime (perfect for viewing!)

Step outside and look up! The ISS appears as a bright, fast-moving star across the sky.

Fun facts:
• The ISS orbits Earth every ~90 minutes
• It travels at about 17,500 mph
• It's about the size of a football field
• It's the third brightest object in the sky after the Sun and Moon

Happy stargazing! ⭐

---
Sent by ISS Overhead Notifier`))

// Body renders the human-readable message text.
func (p Payload) Body() (string, error) {
	p.SentAt = p.SentAt.UTC()
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("render notification body: %w", err)
	}
	return buf.String(), nil
}
