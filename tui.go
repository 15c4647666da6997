package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tunedial/beep"
	"tunedial/log"
	"tunedial/recognizer"
	"tunedial/recorder"
)

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var (
	tabActiveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Bold(true).Padding(0, 2)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 2)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	focusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	errStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	warnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	recStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type tuiModel struct {
	client     *recognizer.Client
	newSession func() *recorder.Session

	tab    Tab
	focus  int
	result ResultState

	// busy is true from submission until the tagged response arrives;
	// together with recording it enforces one in-flight operation.
	busy bool
	gen  int

	filePath  string
	url       string
	startTime string
	endTime   string

	recording bool
	session   *recorder.Session
	level     float64

	copied       bool
	recognitions int
	healthLine   string
	deviceLine   string

	width, height int
}

func newTUIModel(client *recognizer.Client, newSession func() *recorder.Session) tuiModel {
	return tuiModel{
		client:     client,
		newSession: newSession,
		result:     idleResult(),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(uiTick(), healthCmd(m.client))
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, uiTick()

	case levelMsg:
		if m.recording {
			m.level = m.level*0.6 + msg.level*0.4
		}

	case recordingStartedMsg:
		return m, waitClipCmd(m.session)

	case recordingFailedMsg:
		m.recording = false
		m.session = nil
		m.level = 0
		m.result = errorResult(msg.err.Error())
		log.Errorf("recording error: %v", msg.err)
		beep.PlayError()

	case clipMsg:
		log.Info("recording_stop: " + msg.clip.Reason.String())
		beep.PlayDone()
		m.recording = false
		m.session = nil
		m.level = 0
		m.busy = true
		m.result = loadingResult("Identifying recording...")
		return m, recognizeClipCmd(m.client, m.gen, msg.clip)

	case recognitionDoneMsg:
		return m.handleRecognitionDone(msg)

	case extractionDoneMsg:
		return m.handleExtractionDone(msg)

	case healthMsg:
		if msg.err != nil {
			m.healthLine = "backend: unreachable"
		} else {
			m.healthLine = fmt.Sprintf("backend: %s | db: %s | audd: %s",
				msg.health.Status, msg.health.Database, msg.health.AuddAPI)
		}
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab":
		m.switchTab(m.tab.next())
		return m, nil

	case "shift+tab":
		m.switchTab(m.tab.prev())
		return m, nil

	case "up":
		if m.focus > 0 {
			m.focus--
		}
		return m, nil

	case "down":
		if m.focus < m.tab.fieldCount()-1 {
			m.focus++
		}
		return m, nil

	case "ctrl+y":
		if m.result.Kind == ResultSuccess && !m.result.Recognition.NoMatch() {
			r := m.result.Recognition
			if clipboard.WriteAll(r.DisplayTitle()+" — "+r.DisplayArtist()) == nil {
				m.copied = true
			}
		}
		return m, nil

	case "ctrl+x":
		if m.tab == TabURL {
			return m.submitExtraction()
		}
		return m, nil

	case "enter":
		return m.submit()

	case "backspace":
		m.editField(func(s string) string {
			if s == "" {
				return s
			}
			runes := []rune(s)
			return string(runes[:len(runes)-1])
		})
		return m, nil

	case " ":
		if m.tab == TabRecord {
			return m.toggleRecording()
		}
		m.editField(func(s string) string { return s + " " })
		return m, nil

	default:
		if msg.Type == tea.KeyRunes && !msg.Alt {
			text := string(msg.Runes)
			m.editField(func(s string) string { return s + text })
		}
	}
	return m, nil
}

// switchTab changes the modality: the result panel clears, in-flight
// responses become stale, but typed inputs and the active recording
// survive the switch.
func (m *tuiModel) switchTab(t Tab) {
	m.tab = t
	m.focus = 0
	m.result = idleResult()
	m.copied = false
	m.gen++
}

func (m *tuiModel) editField(edit func(string) string) {
	var target *string
	switch m.tab {
	case TabFile:
		target = &m.filePath
	case TabURL:
		switch m.focus {
		case 0:
			target = &m.url
		case 1:
			target = &m.startTime
		case 2:
			target = &m.endTime
		}
	}
	if target != nil {
		*target = edit(*target)
	}
}

func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	if m.tab == TabRecord {
		return m.toggleRecording()
	}
	if m.busy || m.recording {
		return m, nil
	}

	switch m.tab {
	case TabFile:
		if err := validateFilePath(m.filePath); err != nil {
			m.result = errorResult(err.Error())
			return m, nil
		}
		m.busy = true
		m.copied = false
		m.result = loadingResult("Identifying file...")
		return m, recognizeFileCmd(m.client, m.gen, strings.TrimSpace(m.filePath))

	case TabURL:
		if err := validateURL(m.url); err != nil {
			m.result = errorResult(err.Error())
			return m, nil
		}
		m.busy = true
		m.copied = false
		m.result = loadingResult("Identifying URL...")
		return m, recognizeURLCmd(m.client, m.gen,
			strings.TrimSpace(m.url), strings.TrimSpace(m.startTime), strings.TrimSpace(m.endTime))
	}
	return m, nil
}

func (m tuiModel) submitExtraction() (tea.Model, tea.Cmd) {
	if m.busy || m.recording {
		return m, nil
	}
	if err := validateExtraction(m.url, m.startTime, m.endTime); err != nil {
		m.result = errorResult(err.Error())
		return m, nil
	}
	m.busy = true
	m.copied = false
	m.result = loadingResult("Extracting audio...")
	return m, extractURLCmd(m.client, m.gen,
		strings.TrimSpace(m.url), strings.TrimSpace(m.startTime), strings.TrimSpace(m.endTime))
}

func (m tuiModel) toggleRecording() (tea.Model, tea.Cmd) {
	if m.recording {
		// Always allowed. The auto-stop timer may have beaten us here;
		// Stop absorbs the duplicate.
		m.session.Stop(recorder.StopManual)
		return m, nil
	}
	if m.busy {
		return m, nil
	}
	m.session = m.newSession()
	m.recording = true
	m.level = 0
	m.result = idleResult()
	m.copied = false
	log.Info("recording_start")
	return m, startRecordingCmd(m.session)
}

func (m tuiModel) handleRecognitionDone(msg recognitionDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.gen != m.gen {
		// The user switched tabs after dispatch. The panel already
		// shows the new tab's state; only the busy flag clears.
		return m, nil
	}

	if msg.err != nil {
		m.result = errorResult(msg.err.Error())
		log.Errorf("%s recognition failed: %v", msg.source, msg.err)
		beep.PlayError()
		return m, nil
	}

	m.result = successResult(msg.result)
	m.recognitions++
	if t := msg.result.Timing; t != nil {
		log.RecognitionMetrics(log.Metrics{
			DNSTimeMs:   float64(t.DNS.Milliseconds()),
			TLSTimeMs:   float64(t.TLS.Milliseconds()),
			TTFBMs:      float64(t.TTFB.Milliseconds()),
			TotalTimeMs: float64(t.Total.Milliseconds()),
		}, msg.source, "", t.Reused)
	}
	if msg.result.NoMatch() {
		log.Info("no_match")
		beep.PlayError()
	} else {
		log.RecognitionText(msg.result.DisplayTitle() + " — " + msg.result.DisplayArtist())
		log.Confidence(msg.result.Confidence)
		beep.PlayMatch()
	}
	return m, nil
}

func (m tuiModel) handleExtractionDone(msg extractionDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.gen != m.gen {
		return m, nil
	}

	if msg.err != nil {
		m.result = errorResult(msg.err.Error())
		log.Errorf("extraction failed: %v", msg.err)
		beep.PlayError()
		return m, nil
	}

	m.result = extractionResult(msg.result)
	beep.PlayMatch()
	if fi, err := os.Stat(msg.result.SavedPath); err == nil {
		log.ExtractionSaved(msg.result.SavedPath, float64(fi.Size())/1024.0)
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	tabs := make([]string, 0, 3)
	for _, t := range []Tab{TabFile, TabURL, TabRecord} {
		if t == m.tab {
			tabs = append(tabs, tabActiveStyle.Render(t.String()))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(t.String()))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	switch m.tab {
	case TabFile:
		b.WriteString(m.renderField("Path ", m.filePath, m.focus == 0))
		b.WriteString(dimStyle.Render("Accepted: "+strings.Join(acceptedExts, " ")+", up to 10MB | Enter to identify") + "\n")
	case TabURL:
		b.WriteString(m.renderField("URL  ", m.url, m.focus == 0))
		b.WriteString(m.renderField("Start", m.startTime, m.focus == 1))
		b.WriteString(m.renderField("End  ", m.endTime, m.focus == 2))
		b.WriteString(dimStyle.Render("Enter to identify | Ctrl+X extracts a clip (start/end required)") + "\n")
	case TabRecord:
		b.WriteString(m.renderRecorder())
	}

	b.WriteString("\n")
	b.WriteString(m.renderResult())
	b.WriteString("\n")

	if m.healthLine != "" {
		b.WriteString("\n" + dimStyle.Render(m.healthLine))
	}
	if m.deviceLine != "" {
		b.WriteString("\n" + dimStyle.Render(m.deviceLine))
	}
	b.WriteString("\n" + dimStyle.Render("Tab switch | Up/Down field | Ctrl+Y copy result | Ctrl+C quit"))
	b.WriteString("\n" + dimStyle.Render("tunedial "+version))
	return b.String()
}

func (m tuiModel) renderField(label, value string, focused bool) string {
	marker := "  "
	style := labelStyle
	if focused {
		marker = focusStyle.Render("> ")
		style = focusStyle
		value += "█"
	}
	return marker + style.Render(label) + " " + value + "\n"
}

func (m tuiModel) renderRecorder() string {
	if !m.recording {
		return dimStyle.Render("○ idle") + "\n" +
			dimStyle.Render("Space or Enter starts recording (auto-stops at 15s)") + "\n"
	}

	elapsed := 0.0
	if m.session != nil {
		elapsed = m.session.Elapsed().Seconds()
	}
	bar := int(m.level * 80)
	if bar > 30 {
		bar = 30
	}
	return recStyle.Render(fmt.Sprintf("● REC %4.1fs / %.0fs", elapsed, recorder.DefaultMaxDuration.Seconds())) + "\n" +
		okStyle.Render(strings.Repeat("█", bar)) + dimStyle.Render(strings.Repeat("░", 30-bar)) + "\n" +
		dimStyle.Render("Space or Enter stops and identifies") + "\n"
}

func (m tuiModel) renderResult() string {
	switch m.result.Kind {
	case ResultIdle:
		return dimStyle.Render("No result yet")

	case ResultLoading:
		return warnStyle.Render("… " + m.result.Message)

	case ResultError:
		return errStyle.Render("✗ " + m.result.Message)

	case ResultExtraction:
		r := m.result.Extraction
		out := okStyle.Render("✓ "+r.Message) + "\n" +
			dimStyle.Render("saved: "+r.SavedPath)
		if r.Timing != nil {
			out += "\n" + dimStyle.Render(r.Timing.Summary())
		}
		return out

	case ResultSuccess:
		r := m.result.Recognition
		if r.NoMatch() {
			out := warnStyle.Render("No Match Found")
			if r.Message != "" {
				out += "\n" + dimStyle.Render(r.Message)
			}
			return out
		}
		copied := ""
		if m.copied {
			copied = " " + okStyle.Render("[✓ copied]")
		}
		out := titleStyle.Render(r.DisplayTitle()) + copied + "\n" +
			labelStyle.Render("Artist     ") + r.DisplayArtist() + "\n" +
			labelStyle.Render("Album      ") + r.DisplayAlbum() + "\n" +
			labelStyle.Render("Released   ") + r.DisplayRelease() + "\n" +
			labelStyle.Render("Confidence ") + fmt.Sprintf("%.0f%%", r.DisplayConfidence()*100)
		if r.Timing != nil {
			out += "\n" + dimStyle.Render(r.Timing.Summary())
		}
		return out
	}
	return ""
}
