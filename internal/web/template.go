package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/nkey/pelarboj/internal/status"
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
	"hex": func(r, g, b uint8) string {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	},
	"byte": func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v + 0.5)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pelarboj</title>
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
.swatch { display: inline-block; width: 1.2em; height: 1.2em; border: 1px solid #444; vertical-align: middle; margin-right: 6px; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Pelarboj<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Light</h2>
<table>
{{if .HaveLight}}{{with .Light}}
<tr><th>State</th><td id="light-state" class="{{if .Light.Target.On}}on{{else}}off{{end}}">{{if .Light.Target.On}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Brightness</th><td id="light-brightness">{{.Light.Target.Level}}</td></tr>
<tr><th>Target</th><td><span class="swatch" style="background: {{hex .Light.Target.R .Light.Target.G .Light.Target.B}}"></span>{{.Light.Target.R}}, {{.Light.Target.G}}, {{.Light.Target.B}}</td></tr>
<tr><th>Output</th><td><span id="final-swatch" class="swatch" style="background: {{hex (byte .Light.Final.R) (byte .Light.Final.G) (byte .Light.Final.B)}}"></span></td></tr>
<tr><th>Effect</th><td id="light-effect">{{.Effect}}{{if .AutoSub}} ({{.AutoSub}}){{end}}</td></tr>
<tr><th>Mode</th><td id="light-mode">{{.Light.Special.Mode}}</td></tr>
{{end}}{{else}}
<tr><th>State</th><td>starting</td></tr>
{{end}}
<tr><th>Button</th><td id="button-state">{{.Button}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td id="mqtt-state" class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Buffered</th><td id="mqtt-buffered">{{.MQTTBuffered}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counters</h2>
<table>
<tr><th>Skipped frames</th><td id="cnt-skipped">{{.Counters.SkippedFrames}}</td></tr>
<tr><th>Dropped actions</th><td id="cnt-dropped">{{.Counters.DroppedActions}}</td></tr>
<tr><th>Commands</th><td>{{.Counters.Commands}}</td></tr>
<tr><th>Toggles</th><td>{{.Counters.Toggles}}</td></tr>
<tr><th>Effect changes</th><td>{{.Counters.EffectCycles}}</td></tr>
<tr><th>Reset attempts</th><td>{{.Counters.ResetAttempts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>LED period</th><td>{{.Config.LEDPeriodMs}}ms</td></tr>
<tr><th>Button period</th><td>{{.Config.ButtonPeriodMs}}ms</td></tr>
<tr><th>PWM</th><td>{{.Config.PWMBits}} bit</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function setText(id, text) {
    var el = document.getElementById(id);
    if (el) { el.textContent = text; }
  }
  function hex(c) {
    return "#" + [c.r, c.g, c.b].map(function(v) {
      return ("0" + Math.max(0, Math.min(255, v)).toString(16)).slice(-2);
    }).join("");
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        if (s.light) {
          var st = document.getElementById("light-state");
          if (st) { st.textContent = s.light.state; st.className = s.light.state === "ON" ? "on" : "off"; }
          setText("light-brightness", s.light.brightness);
          setText("light-effect", s.light.effect + (s.light.auto_sub ? " (" + s.light.auto_sub + ")" : ""));
          setText("light-mode", s.light.mode);
          var sw = document.getElementById("final-swatch");
          if (sw) { sw.style.background = hex(s.light.final); }
        }
        setText("button-state", s.button);
        var m = document.getElementById("mqtt-state");
        if (m) {
          m.textContent = s.mqtt.connected ? "connected" : "disconnected";
          m.className = s.mqtt.connected ? "connected" : "disconnected";
        }
        setText("mqtt-buffered", s.mqtt.buffered);
        setText("cnt-skipped", s.counters.skipped_frames);
        setText("cnt-dropped", s.counters.dropped_actions);
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
