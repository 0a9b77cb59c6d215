package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/fanshim-mqtt/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"celsius": func(v float64) string {
		return fmt.Sprintf("%.1f°C", v)
	},
	"mode": status.ModeName,
	"fan":  status.FanName,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Fan SHIM</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Fan SHIM</h1>

<h2>State</h2>
<table>
<tr><th>Fan</th><td id="fan-state" class="{{if .Enabled}}on{{else}}off{{end}}">{{fan .Enabled}}</td></tr>
<tr><th>Mode</th><td id="mode">{{mode .Armed}}</td></tr>
<tr><th>Temperature</th><td>{{if .Sampled}}{{celsius .Temperature}}{{else}}-{{end}}</td></tr>
<tr><th>CPU clock</th><td>{{if .FrequencyValid}}{{printf "%.0f" .Frequency.Current}} / {{printf "%.0f" .Frequency.Max}} MHz{{if .Fast}} (saturated){{end}}{{else}}unavailable{{end}}</td></tr>
{{if not .LastChangeTime.IsZero}}<tr><th>Last change</th><td>{{.LastChangeTime.UTC.Format "2006-01-02T15:04:05Z"}} at {{celsius .LastChangeTemp}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Fan switches</th><td>{{.FanTransitions}}</td></tr>
<tr><th>Mode switches</th><td>{{.ModeTransitions}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Thresholds</th><td>on {{celsius .Config.OnThreshold}}, off {{celsius .Config.OffThreshold}}</td></tr>
<tr><th>Delay</th><td>{{.Config.DelayMs}}ms</td></tr>
<tr><th>Preempt</th><td>{{if .Config.Preempt}}yes{{else}}no{{end}}</td></tr>
<tr><th>Button</th><td>{{if .Config.Button}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>LED</th><td>{{if .Config.LED}}brightness {{printf "%.0f" .Config.Brightness}}{{else}}disabled{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/history.json">History</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
