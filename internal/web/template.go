package web

import (
	"fmt"
	"html/template"
	"time"

	"github.com/sweeney/fridge-controller/internal/logic"
	"github.com/sweeney/fridge-controller/internal/status"
)

// page is the template view of a snapshot.
type page struct {
	status.Snapshot
	Uptime time.Duration
	Relays []relayRow
}

type relayRow struct {
	Name string
	On   bool
}

func newPage(snap status.Snapshot) page {
	p := page{Snapshot: snap, Uptime: snap.Uptime()}
	for _, a := range logic.Actuators {
		p.Relays = append(p.Relays, relayRow{Name: string(a), On: snap.State.Relays[a]})
	}
	return p
}

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
	"celsius": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.1f °C", *v)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Fridge Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.defrost { color: steelblue; font-weight: bold; }
.fault { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Fridge Controller{{if .Config.DeviceID}} ({{.Config.DeviceID}}){{end}}</h1>

<h2>State</h2>
<table>
<tr><th>Status</th><td id="status" class="{{if eq (orUnknown (printf "%s" .State.Status)) "ON"}}on{{else if eq (printf "%s" .State.Status) "DEFROST"}}defrost{{else}}off{{end}}">{{orUnknown (printf "%s" .State.Status)}}</td></tr>
<tr><th>Mode</th><td id="mode">{{orUnknown (printf "%s" .State.Mode)}}</td></tr>
<tr><th>Fault</th><td class="{{if .State.Fault}}fault{{else}}off{{end}}">{{if .State.Fault}}yes (stable {{.Stable}}){{else}}no{{end}}</td></tr>
<tr><th>Privileged</th><td>{{if .State.Privileged}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Readings</h2>
<table>
<tr><th>Cabinet</th><td id="temperature">{{celsius .Temperature}}</td></tr>
<tr><th>Evaporator</th><td id="evaporator">{{celsius .Evaporator}}</td></tr>
<tr><th>Humidity</th><td>{{printf "%.1f" .Humidity}} %</td></tr>
</table>

<h2>Setpoints</h2>
<table>
<tr><th>Target</th><td>{{printf "%.1f" .State.TargetTemperature}} °C</td></tr>
<tr><th>Defrost threshold</th><td>{{printf "%.1f" .State.DefrostThreshold}} °C</td></tr>
<tr><th>Defrost type</th><td>{{.State.DefrostType}}</td></tr>
</table>

<h2>Relays</h2>
<table>
{{range .Relays}}<tr><th>{{.Name}}</th><td class="{{if .On}}on{{else}}off{{end}}">{{if .On}}ON{{else}}OFF{{end}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>Uplink</th><td class="{{if .Reachable}}connected{{else}}disconnected{{end}}">{{if .Reachable}}reachable{{else}}unreachable{{end}}</td></tr>
<tr><th>Coordinator</th><td>{{.Config.UplinkURL}}</td></tr>
{{if not .LastUpload.IsZero}}<tr><th>Last upload</th><td>{{.LastUpload.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{end}}
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Compressor starts</th><td>{{.Counts.CompressorStarts}}</td></tr>
<tr><th>Defrosts</th><td>{{.Counts.Defrosts}}</td></tr>
<tr><th>Faults</th><td>{{.Counts.Faults}}</td></tr>
<tr><th>Emergency stops</th><td>{{.Counts.EmergencyStops}}</td></tr>
<tr><th>Uplink losses</th><td>{{.Counts.UplinkLosses}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Sensors</th><td>{{.Config.SensorMs}}ms</td></tr>
<tr><th>Upload</th><td>{{.Config.UploadMs}}ms</td></tr>
<tr><th>Save</th><td>{{.Config.SaveMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>
`
