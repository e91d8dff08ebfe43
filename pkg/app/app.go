package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zurustar/midity/pkg/cli"
	"github.com/zurustar/midity/pkg/fileutil"
	"github.com/zurustar/midity/pkg/logger"
	"github.com/zurustar/midity/pkg/playback"
	"github.com/zurustar/midity/pkg/plot"
	"github.com/zurustar/midity/pkg/report"
	"github.com/zurustar/midity/pkg/smf"
	"github.com/zurustar/midity/pkg/synth"
)

var (
	// ErrNoInput はMIDIファイルが指定されていない場合のエラー
	ErrNoInput = errors.New("no MIDI file specified")
	// ErrTrackOutOfRange は --track がトラック数を超えている場合のエラー
	ErrTrackOutOfRange = errors.New("track index out of range")
	// ErrEmptySong は合成する長さが0の場合のエラー
	ErrEmptySong = errors.New("nothing to render")
)

// pollInterval は play 中に終了条件を確認する間隔
const pollInterval = 50 * time.Millisecond

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer

	midiPath string      // 解決済みのMIDIファイルパス
	tracks   []smf.Track // 読み込んだ全トラック
}

// New Applicationを作成
func New() *Application {
	return NewWithOutput(os.Stdout, os.Stderr)
}

// NewWithOutput 出力先を指定してApplicationを作成
func NewWithOutput(stdout, stderr io.Writer) *Application {
	return &Application{stdout: stdout, stderr: stderr}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Debug("Application started", "command", app.config.Command)

	// 3. MIDIファイルの読み込み
	if err := app.load(); err != nil {
		return fmt.Errorf("failed to load MIDI file: %w", err)
	}

	tracks, err := app.selectTracks()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	// 4. コマンドの実行
	switch app.config.Command {
	case "info":
		err = app.runInfo(tracks)
	case "events":
		err = app.runEvents(tracks)
	case "sample":
		err = app.runSample(tracks)
	case "plot":
		err = app.runPlot(tracks)
	case "render":
		err = app.runRender(ctx, tracks)
	case "play":
		err = app.runPlay(ctx, tracks)
	default:
		err = fmt.Errorf("unknown command: %s", app.config.Command)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", app.config.Command, err)
	}

	app.log.Debug("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化（標準出力はコマンドの結果に使う）
func (app *Application) initLogger() error {
	if err := logger.InitLoggerTo(app.stderr, app.config.LogLevel, app.config.LogFormat); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// load MIDIファイルを探して全トラックを読み込む
func (app *Application) load() error {
	if app.config.MIDIPath == "" {
		return ErrNoInput
	}

	path, err := fileutil.ResolvePath(app.config.MIDIPath)
	if err != nil {
		return err
	}

	tracks, err := smf.LoadFile(path, smf.WithTextEncoding(app.config.Encoding))
	if err != nil {
		return err
	}

	app.midiPath = path
	app.tracks = tracks
	app.log.Info("MIDI file loaded", "path", path, "tracks", len(tracks))
	return nil
}

// selectTracks --track で指定されたトラック（-1は全トラック）を返す
func (app *Application) selectTracks() ([]smf.Track, error) {
	if app.config.Track < 0 {
		return app.tracks, nil
	}
	if app.config.Track >= len(app.tracks) {
		return nil, fmt.Errorf("%w: %d (file has %d tracks)", ErrTrackOutOfRange, app.config.Track, len(app.tracks))
	}
	return app.tracks[app.config.Track : app.config.Track+1], nil
}

// trackLabel 表示用のトラック名
func trackLabel(tr *smf.Track, i int) string {
	if tr.Name != "" {
		return tr.Name
	}
	return fmt.Sprintf("track %d", i)
}

// outputPath 出力先を返す。未指定ならMIDIファイル名の拡張子を差し替える
func (app *Application) outputPath(ext string) string {
	if app.config.Output != "" {
		return app.config.Output
	}
	base := filepath.Base(app.midiPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

// runInfo トラック一覧を表示
func (app *Application) runInfo(tracks []smf.Track) error {
	return report.Tracks(app.stdout, tracks)
}

// runEvents トラックごとにイベントを表示
func (app *Application) runEvents(tracks []smf.Track) error {
	for i := range tracks {
		tr := &tracks[i]
		if _, err := fmt.Fprintf(app.stdout, "%s\n", trackLabel(tr, i)); err != nil {
			return err
		}
		if err := report.Events(app.stdout, tr, app.config.Events); err != nil {
			return err
		}
	}
	return nil
}

// runSample 指定時刻（--at 未指定なら1周分を等間隔）の値を表示
func (app *Application) runSample(tracks []smf.Track) error {
	control := app.config.Control

	var rows []report.SampleRow
	for i := range tracks {
		tr := &tracks[i]
		label := trackLabel(tr, i)
		if len(app.config.At) > 0 {
			for _, t := range app.config.At {
				rows = append(rows, report.SampleRow{Track: label, Time: t, Value: control.Value(tr, t)})
			}
			continue
		}
		s := plot.Sample(tr, control, app.config.Samples)
		for j := range s.Times {
			rows = append(rows, report.SampleRow{Track: label, Time: s.Times[j], Value: s.Values[j]})
		}
	}
	return report.Samples(app.stdout, rows)
}

// runPlot 値の変化をPNGに描画
func (app *Application) runPlot(tracks []smf.Track) error {
	control := app.config.Control

	series := make([]plot.Series, 0, len(tracks))
	for i := range tracks {
		s := plot.Sample(&tracks[i], control, app.config.Samples)
		s.Name = trackLabel(&tracks[i], i)
		series = append(series, s)
	}

	opts := plot.DefaultOptions
	opts.Title = fmt.Sprintf("%s (%s)", filepath.Base(app.midiPath), describeControl(app.config))

	path := app.outputPath(".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := plot.Render(f, series, opts); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.log.Info("Plot written", "path", path, "series", len(series))
	return nil
}

// describeControl グラフのタイトル用に値の計算方法を説明する
func describeControl(config *cli.Config) string {
	c := config.Control
	if c.Mode == playback.ModeCC {
		return fmt.Sprintf("CC%d", c.Controller)
	}
	return fmt.Sprintf("%s %s", c.Mode, c.Filter)
}

// newStream SoundFontを読み込んでトラックを合成するストリームを作成
func (app *Application) newStream(tracks []smf.Track) (*synth.Stream, error) {
	path, err := findSoundFont(app.config.SoundFont, app.midiPath)
	if err != nil {
		return nil, err
	}

	sf, err := synth.LoadSoundFont(path)
	if err != nil {
		return nil, err
	}
	app.log.Info("SoundFont loaded", "path", path)

	return synth.NewStream(sf, tracks, synth.Options{
		Loop:   app.config.Loop,
		Filter: app.config.Filter,
	})
}

// renderSeconds --duration、未指定なら最長トラック1周分
func (app *Application) renderSeconds(stream *synth.Stream) (float64, error) {
	seconds := app.config.Duration.Seconds()
	if seconds == 0 {
		seconds = stream.Length()
	}
	if seconds <= 0 {
		return 0, ErrEmptySong
	}
	return seconds, nil
}

// runRender WAVファイルに書き出す
func (app *Application) runRender(ctx context.Context, tracks []smf.Track) error {
	stream, err := app.newStream(tracks)
	if err != nil {
		return err
	}
	seconds, err := app.renderSeconds(stream)
	if err != nil {
		return err
	}

	path := app.outputPath(".wav")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	n, err := synth.WriteWAV(f, &contextReader{ctx: ctx, r: stream}, seconds)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.log.Info("WAV written", "path", path, "seconds", seconds, "frames", n)
	return nil
}

// runPlay オーディオデバイスで再生する
func (app *Application) runPlay(ctx context.Context, tracks []smf.Track) error {
	stream, err := app.newStream(tracks)
	if err != nil {
		return err
	}

	out, err := synth.NewOutput(stream)
	if err != nil {
		return err
	}
	defer out.Close()
	out.SetMuted(app.config.Mute)

	limit := app.config.Duration
	app.log.Info("Playback started", "loop", app.config.Loop, "length", stream.Length(), "limit", limit, "muted", out.IsMuted())
	out.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				app.log.Info("Timeout reached, terminating")
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if limit > 0 && out.Position() >= limit {
				app.log.Info("Playback duration reached", "position", out.Position())
				return nil
			}
			// 非ループ時はデバイスが最後のバッファを鳴らし終えるまで待つ
			if stream.Done() && out.Position().Seconds() >= stream.Length() {
				app.log.Info("Playback finished", "position", out.Position())
				return nil
			}
		}
	}
}

// contextReader はコンテキストが終了すると読み込みを打ち切る
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
