package report

import (
	"fmt"
	"html/template"
	"os"
	"strings"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Info.ToolName}} Scan Report</title>
    <style>
        :root {
            --bg-primary: #0f0f1a;
            --bg-card: #16213e;
            --accent: #00d4ff;
            --text-primary: #ffffff;
            --text-secondary: #a0a0b0;
            --success: #00ff88;
            --warning: #ffaa00;
            --danger: #ff4444;
            --border-color: rgba(255, 255, 255, 0.1);
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.6;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 40px 20px; }
        .header {
            text-align: center;
            padding: 40px;
            border-radius: 16px;
            border: 1px solid var(--border-color);
            margin-bottom: 30px;
        }
        .header h1 { font-size: 2.4rem; color: var(--accent); }
        .header .meta { color: var(--text-secondary); margin-top: 10px; }
        .targets { font-family: monospace; font-size: 0.9rem; margin-top: 10px; word-break: break-all; }
        .stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; margin-bottom: 30px; }
        .stat { background: var(--bg-card); padding: 24px; border-radius: 12px; text-align: center; border: 1px solid var(--border-color); }
        .stat .value { font-size: 2rem; font-weight: 700; }
        .stat .label { color: var(--text-secondary); text-transform: uppercase; font-size: 0.85rem; }
        .danger .value { color: var(--danger); }
        .success .value { color: var(--success); }
        .warning .value { color: var(--warning); }
        .vuln-card {
            background: var(--bg-card);
            border-left: 4px solid var(--danger);
            border-radius: 0 12px 12px 0;
            padding: 20px;
            margin-bottom: 16px;
        }
        .vuln-header { display: flex; justify-content: space-between; margin-bottom: 14px; }
        .vuln-type { font-size: 1.2rem; font-weight: 600; color: var(--danger); }
        .severity-badge { padding: 4px 14px; border-radius: 20px; font-weight: 600; text-transform: uppercase; font-size: 0.8rem; }
        .severity-high { background: var(--danger); color: white; }
        .severity-medium { background: var(--warning); color: #000; }
        .severity-low { background: #4a9eff; color: white; }
        .detail-row { display: grid; grid-template-columns: 140px 1fr; gap: 12px; margin-bottom: 8px; }
        .detail-label { color: var(--text-secondary); font-size: 0.85rem; text-transform: uppercase; }
        .detail-value {
            font-family: monospace;
            font-size: 0.9rem;
            word-break: break-all;
            background: rgba(0, 0, 0, 0.2);
            padding: 8px 12px;
            border-radius: 6px;
        }
        .detail-value.payload { color: var(--danger); }
        .no-vulns { text-align: center; padding: 40px; color: var(--success); }
        .footer { text-align: center; padding: 30px; color: var(--text-secondary); font-size: 0.85rem; }
        @media (max-width: 768px) { .detail-row { grid-template-columns: 1fr; } }
    </style>
</head>
<body>
    <div class="container">
        <header class="header">
            <h1>{{.Info.ToolName}} Scan Report</h1>
            <div class="meta">Session {{.Info.Author}} &middot; {{.Info.Timestamp}} &middot; Duration {{.ScanDuration}}{{if .Interrupted}} &middot; interrupted{{end}}</div>
            <div class="targets">{{range .TargetURLs}}<div>{{.}}</div>{{end}}</div>
        </header>

        <div class="stats">
            <div class="stat {{if .Vulnerabilities}}danger{{else}}success{{end}}">
                <div class="value">{{len .Vulnerabilities}}</div>
                <div class="label">Vulnerabilities</div>
            </div>
            <div class="stat">
                <div class="value">{{.TestedPayloads}}</div>
                <div class="label">Tests Run</div>
            </div>
            <div class="stat {{if gt .ErrorCount 0}}warning{{else}}success{{end}}">
                <div class="value">{{.ErrorCount}}</div>
                <div class="label">Errors</div>
            </div>
        </div>

        {{if .Vulnerabilities}}
            {{range $i, $vuln := .Vulnerabilities}}
            <div class="vuln-card">
                <div class="vuln-header">
                    <span class="vuln-type">#{{inc $i}} {{$vuln.Type}}</span>
                    <span class="severity-badge severity-{{$vuln.Severity | lower}}">{{$vuln.Severity}}</span>
                </div>
                <div class="detail-row"><span class="detail-label">URL</span><span class="detail-value">{{$vuln.URL}}</span></div>
                <div class="detail-row"><span class="detail-label">Injection</span><span class="detail-value">{{$vuln.InjectionPoint}}{{if $vuln.Parameter}}:{{$vuln.Parameter}}{{end}}</span></div>
                <div class="detail-row"><span class="detail-label">Payload</span><span class="detail-value payload">{{$vuln.Payload}}</span></div>
                <div class="detail-row"><span class="detail-label">Context</span><span class="detail-value">{{$vuln.Context.Description}}</span></div>
                {{if $vuln.Evidence.JavaScriptDescription}}
                <div class="detail-row"><span class="detail-label">Execution</span><span class="detail-value">{{$vuln.Evidence.JavaScriptDescription}}</span></div>
                {{end}}
                {{if $vuln.Evidence.DOMDescription}}
                <div class="detail-row"><span class="detail-label">DOM</span><span class="detail-value">{{$vuln.Evidence.DOMDescription}}</span></div>
                {{end}}
                {{if $vuln.StoredVerified}}
                <div class="detail-row"><span class="detail-label">Stored</span><span class="detail-value">{{if deref $vuln.StoredVerified}}confirmed on revisit{{else}}heuristic{{end}}</span></div>
                {{end}}
                {{if $vuln.Screenshot}}
                <div class="detail-row"><span class="detail-label">Screenshot</span><span class="detail-value">{{$vuln.Screenshot}}</span></div>
                {{end}}
                {{range $vuln.Context.Recommendations}}
                <div class="detail-row"><span class="detail-label">Fix</span><span class="detail-value">{{.}}</span></div>
                {{end}}
                <div class="detail-row"><span class="detail-label">Found</span><span class="detail-value">{{$vuln.Timestamp}} &middot; {{$vuln.ID}}</span></div>
            </div>
            {{end}}
        {{else}}
            <div class="no-vulns"><h3>No Vulnerabilities Detected</h3></div>
        {{end}}

        <footer class="footer">Report generated by <strong>{{.Info.ToolName}} {{.Info.Version}}</strong></footer>
    </div>
</body>
</html>`

// generateHTML creates the HTML report. html/template escapes payloads so
// the report itself never executes them.
func generateHTML(doc document, outputPath string) error {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"inc":   func(i int) int { return i + 1 },
		"deref": func(b *bool) bool { return b != nil && *b },
	}

	t, err := template.New("report").Funcs(funcMap).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return t.Execute(file, doc)
}
