package dashboard

import (
	"fmt"
	"net/http"
)

// handleRoot serves a minimal live view that subscribes to /ws.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, rootPage, r.Host)
}

const rootPage = `<!DOCTYPE html>
<html>
<head>
    <title>drowse</title>
    <style>
        body { font-family: monospace; background: #1e1e2e; color: #cdd6f4; margin: 2rem; }
        h1 { color: #74c7ec; }
        .current { color: #a6e3a1; }
        .muted { color: #a6adc8; }
        table { border-collapse: collapse; margin-top: 1rem; }
        td, th { padding: 0.25rem 1rem 0.25rem 0; text-align: left; }
    </style>
</head>
<body>
    <h1>drowse</h1>
    <p id="current" class="muted">connecting&hellip;</p>
    <p id="stats" class="muted"></p>
    <table id="history"></table>
    <script>
        const ws = new WebSocket("ws://%s/ws");
        const fmtTime = (ms) => new Date(ms).toLocaleString();
        const fmtDur = (ms) => {
            const m = Math.round(ms / 60000);
            return Math.floor(m / 60) + "h" + String(m %% 60).padStart(2, "0") + "m";
        };
        ws.onmessage = (ev) => {
            const msg = JSON.parse(ev.data);
            if (msg.type === "snapshot") renderSnapshot(msg.data || {});
            if (msg.type === "stats") renderStats(msg.data || {});
        };
        ws.onclose = () => {
            document.getElementById("current").textContent = "disconnected";
        };
        function renderSnapshot(snap) {
            const cur = document.getElementById("current");
            if (snap.current) {
                cur.textContent = "asleep since " + fmtTime(Date.parse(snap.current.start));
                cur.className = "current";
            } else {
                cur.textContent = "awake";
                cur.className = "muted";
            }
            const rows = ["<tr class=muted><th>bedtime</th><th>wake</th><th>slept</th><th>quality</th></tr>"];
            for (const s of snap.history || []) {
                const start = Date.parse(s.start), end = Date.parse(s.end);
                rows.push("<tr><td>" + fmtTime(start) + "</td><td>"
                    + (s.open ? "(asleep)" : fmtTime(end)) + "</td><td>"
                    + (s.open ? "" : fmtDur(end - start)) + "</td><td>"
                    + (s.quality >= 0 ? "★".repeat(s.quality) : "") + "</td></tr>");
            }
            document.getElementById("history").innerHTML = rows.join("");
        }
        function renderStats(st) {
            if (!st.nights) return;
            document.getElementById("stats").textContent =
                st.nights + " nights, avg " + fmtDur(st.avg_sleep_ms)
                + (st.rated ? ", avg quality " + st.avg_quality.toFixed(1) : "");
        }
    </script>
</body>
</html>`
