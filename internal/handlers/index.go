package handlers

import (
	"html/template"
	"net/http"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>AI Query Interface</title>
    <meta charset="utf-8">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        .header { background: #2c2c2c; color: white; padding: 20px; border-radius: 12px; margin-bottom: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
        .panel { background: white; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); border: 1px solid #e0e0e0; padding: 20px; margin-bottom: 20px; }
        label { display: block; margin-bottom: 5px; font-weight: 600; color: #333; font-size: 0.9em; }
        textarea { width: 100%; min-height: 100px; padding: 8px 12px; border: 1px solid #d0d0d0; border-radius: 6px; box-sizing: border-box; font-size: 14px; }
        .suffix { color: #666; font-size: 0.85em; white-space: pre-wrap; background: #f8f8f8; border-radius: 6px; padding: 10px; margin-top: 8px; }
        button { margin-top: 12px; padding: 10px 24px; background: #2c2c2c; color: white; border: none; border-radius: 6px; font-size: 14px; cursor: pointer; }
        button:disabled { background: #999; }
        .error { color: #b00020; margin-top: 12px; }
        #response { margin-top: 12px; }
        #response table { border-collapse: collapse; }
        #response td, #response th { border: 1px solid #d0d0d0; padding: 4px 8px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>AI Query Interface</h1>
        <div>Model responses are rendered below; the suffix is appended to every prompt.</div>
    </div>
    <div class="panel">
        <label for="prompt">Prompt</label>
        <textarea id="prompt" placeholder="Enter your prompt..."></textarea>
        <label>Appended suffix</label>
        <div class="suffix">{{.Suffix}}</div>
        <button id="send" onclick="sendQuery()">Send</button>
        <div class="error" id="error"></div>
    </div>
    <div class="panel">
        <label>Response</label>
        <div id="response"></div>
    </div>
    <script>
        async function sendQuery() {
            const button = document.getElementById('send');
            const errorBox = document.getElementById('error');
            const responseBox = document.getElementById('response');
            errorBox.textContent = '';
            responseBox.innerHTML = '';
            button.disabled = true;
            try {
                const res = await fetch('/query', {
                    method: 'POST',
                    headers: {'Content-Type': 'application/json'},
                    body: JSON.stringify({prompt: document.getElementById('prompt').value})
                });
                const data = await res.json();
                if (!res.ok) {
                    errorBox.textContent = data.error || 'request failed';
                } else {
                    responseBox.innerHTML = data.response_html;
                }
            } catch (e) {
                errorBox.textContent = 'request failed';
            } finally {
                button.disabled = false;
            }
        }
    </script>
</body>
</html>`))

func (h *QueryHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTmpl.Execute(w, struct{ Suffix string }{Suffix: h.queryService.Suffix()})
}
