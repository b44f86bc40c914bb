// Package report renders an HTML summary of one decode run: the events it
// produced, grouped by UCR classification, alongside any warnings raised
// during decoding.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/mscrnt/mcadecode/pkg/db"
)

// ReportData contains all data needed for report generation.
type ReportData struct {
	Run         *db.Run
	Events      []*db.Event
	GeneratedAt time.Time
	EventGroups []EventGroup
}

// EventGroup groups decoded events by UCR classification.
type EventGroup struct {
	Name   string
	Events []EventDisplay
}

// EventDisplay is one decoded event reshaped for template rendering.
type EventDisplay struct {
	CPU       int
	Bank      int
	Signature string
	Status    string
	MCACode   string
	Meaning   string
	UCRClass  string
	Warnings  []*db.Warning
}

// Generator creates HTML reports from a decode-run database.
type Generator struct {
	database *db.DB
}

// NewGenerator creates a new report generator.
func NewGenerator(database *db.DB) *Generator {
	return &Generator{database: database}
}

// GenerateHTML generates an HTML report for a run.
func (g *Generator) GenerateHTML(runID int64) (string, error) {
	data, err := g.loadReportData(runID)
	if err != nil {
		return "", err
	}

	tmpl, err := g.loadHTMLTemplate()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func (g *Generator) loadReportData(runID int64) (*ReportData, error) {
	run, err := g.database.GetRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	events, err := g.database.ListEvents(db.EventFilter{RunID: &runID})
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	data := &ReportData{
		Run:         run,
		Events:      events,
		GeneratedAt: time.Now(),
	}

	groups, err := g.groupEvents(events)
	if err != nil {
		return nil, err
	}
	data.EventGroups = groups

	return data, nil
}

// groupEvents groups events by UCR classification, ordering groups from
// most to least severe.
func (g *Generator) groupEvents(events []*db.Event) ([]EventGroup, error) {
	order := []string{"SRAR", "SRAO", "SRAO/UCNA", "UC", "CE", ""}
	names := map[string]string{
		"SRAR":      "Software Recoverable Action Required",
		"SRAO":      "Software Recoverable Action Optional",
		"SRAO/UCNA": "Uncorrected No Action Required",
		"UC":        "Uncorrected",
		"CE":        "Corrected",
		"":          "Unclassified",
	}

	byClass := make(map[string][]EventDisplay)
	for _, ev := range events {
		warnings, err := g.database.GetWarnings(ev.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get warnings for event %d: %w", ev.ID, err)
		}

		byClass[ev.UCRClass] = append(byClass[ev.UCRClass], EventDisplay{
			CPU:       ev.CPU,
			Bank:      ev.Bank,
			Signature: ev.ProcessorSignature,
			Status:    ev.Status,
			MCACode:   ev.MCACode,
			Meaning:   ev.Meaning,
			UCRClass:  ev.UCRClass,
			Warnings:  warnings,
		})
	}

	var groups []EventGroup
	for _, class := range order {
		displays, ok := byClass[class]
		if !ok {
			continue
		}
		groups = append(groups, EventGroup{Name: names[class], Events: displays})
	}

	return groups, nil
}

func (g *Generator) loadHTMLTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
		"formatDuration": func(d time.Duration) string {
			return fmt.Sprintf("%.2f seconds", d.Seconds())
		},
		"ucrClass": func(class string) string {
			switch class {
			case "SRAR", "SRAO", "UC":
				return "danger"
			case "SRAO/UCNA":
				return "warning"
			case "CE":
				return "success"
			default:
				return "unknown"
			}
		},
	}

	tmpl := template.New("report").Funcs(funcMap)
	tmpl, err := tmpl.Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl, nil
}

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>MCA Decode Report - Run #{{.Run.ID}}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background-color: #f5f5f5;
        }
        .container {
            background-color: white;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            padding: 30px;
        }
        h1, h2, h3 { color: #2c3e50; }
        .header {
            border-bottom: 3px solid #2563EB;
            padding-bottom: 20px;
            margin-bottom: 30px;
        }
        .status {
            display: inline-block;
            padding: 5px 15px;
            border-radius: 4px;
            font-weight: bold;
            text-transform: uppercase;
        }
        .status.danger { background-color: #EF4444; color: white; }
        .status.warning { background-color: #F59E0B; color: white; }
        .status.success { background-color: #10B981; color: white; }
        .status.unknown { background-color: #9CA3AF; color: white; }
        .info-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin: 20px 0;
        }
        .info-card {
            background-color: #f8f9fa;
            padding: 15px;
            border-radius: 4px;
            border-left: 4px solid #2563EB;
        }
        .info-card h3 {
            margin: 0 0 10px 0;
            color: #666;
            font-size: 0.9em;
            text-transform: uppercase;
        }
        .info-card p { margin: 0; font-size: 1.1em; font-weight: 500; }
        .events-section { margin: 30px 0; }
        .event-group { margin-bottom: 25px; }
        .event-group h3 {
            background-color: #f0f0f0;
            padding: 10px;
            margin: 0 0 15px 0;
            border-radius: 4px;
        }
        .events-table { width: 100%; border-collapse: collapse; }
        .events-table th,
        .events-table td {
            padding: 10px;
            text-align: left;
            border-bottom: 1px solid #e0e0e0;
        }
        .events-table th {
            background-color: #f8f9fa;
            font-weight: 600;
            color: #666;
        }
        .events-table tr:last-child td { border-bottom: none; }
        .footer {
            margin-top: 40px;
            padding-top: 20px;
            border-top: 1px solid #e0e0e0;
            text-align: center;
            color: #666;
            font-size: 0.9em;
        }
        .error-section {
            background-color: #FEE;
            border: 1px solid #FCC;
            border-radius: 4px;
            padding: 15px;
            margin: 20px 0;
        }
        .error-section h3 { color: #C00; margin-top: 0; }
        pre {
            background-color: #f4f4f4;
            padding: 10px;
            border-radius: 4px;
            overflow-x: auto;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>MCA Decode Report</h1>
            <p>Run ID: #{{.Run.ID}} | Source: {{.Run.Source}}</p>
        </div>

        <div class="info-grid">
            <div class="info-card">
                <h3>Start Time</h3>
                <p>{{formatTime .Run.StartTime}}</p>
            </div>
            <div class="info-card">
                <h3>End Time</h3>
                <p>{{if .Run.EndTime}}{{formatTime .Run.EndTime}}{{else}}Still Running{{end}}</p>
            </div>
            <div class="info-card">
                <h3>Duration</h3>
                <p>{{if .Run.EndTime}}{{formatDuration .Run.Duration}}{{else}}N/A{{end}}</p>
            </div>
            <div class="info-card">
                <h3>Events / Warnings</h3>
                <p>{{.Run.EventCount}} / {{.Run.WarningCount}}</p>
            </div>
        </div>

        {{if .Run.Error}}
        <div class="error-section">
            <h3>Error Details</h3>
            <pre>{{.Run.Error}}</pre>
        </div>
        {{end}}

        <div class="events-section">
            <h2>Decoded Events</h2>
            {{range .EventGroups}}
            <div class="event-group">
                <h3>{{.Name}}</h3>
                <table class="events-table">
                    <thead>
                        <tr>
                            <th>CPU</th>
                            <th>Bank</th>
                            <th>Signature</th>
                            <th>Status</th>
                            <th>Code</th>
                            <th>Meaning</th>
                            <th>Class</th>
                            <th>Warnings</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Events}}
                        <tr>
                            <td>{{.CPU}}</td>
                            <td>{{.Bank}}</td>
                            <td>{{.Signature}}</td>
                            <td><code>{{.Status}}</code></td>
                            <td>{{.MCACode}}</td>
                            <td>{{.Meaning}}</td>
                            <td><span class="status {{ucrClass .UCRClass}}">{{if .UCRClass}}{{.UCRClass}}{{else}}n/a{{end}}</span></td>
                            <td>{{range .Warnings}}{{.Category}}<br>{{end}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>

        <div class="footer">
            <p>Generated on {{formatTime .GeneratedAt}}</p>
        </div>
    </div>
</body>
</html>
`
