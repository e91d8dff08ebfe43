package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/midity/pkg/playback"
	"github.com/zurustar/midity/pkg/smf"
)

// Commands はサポートするサブコマンドの一覧
var Commands = []string{"info", "events", "sample", "plot", "render", "play"}

// DefaultCommand はサブコマンド省略時に実行するコマンド
const DefaultCommand = "info"

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	Command   string // サブコマンド
	MIDIPath  string // 入力MIDIファイルのパス
	LogLevel  string // ログレベル（debug, info, warn, error）
	LogFormat string // ログ形式（text, json）
	Encoding  smf.TextEncoding

	Track  int             // 対象トラック（-1は全トラック）
	Loop   bool            // ループ再生
	Filter playback.Filter // 再生時に出力するイベント
	Events int             // events コマンドで表示する最大件数（0は無制限）

	Control playback.Control // sample / plot で使う値の計算方法
	At      []float64        // sample の問い合わせ時刻（秒）
	Samples int              // plot / sample の標本数

	Output    string        // 出力ファイル（plot, render）
	SoundFont string        // SoundFontファイルのパス
	Duration  time.Duration // render / play の長さ（0は最長トラック1周分）
	Mute      bool          // play で音を出さない
	Timeout   time.Duration // タイムアウト時間（0は無制限）
	ShowHelp  bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-no-loop": true, "--no-loop": true,
	"-mute": true, "--mute": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("midity", flag.ContinueOnError)

	config := &Config{}

	var (
		timeoutSec  int
		durationSec float64
		encoding    string
		noLoop      bool
		filterName  string
		mode        string
		controller  int
		note        string
		adsr        string
		curve       string
		at          string
	)
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.StringVar(&config.LogFormat, "log-format", "text", "ログ形式（text, json）")
	fs.StringVar(&encoding, "encoding", "raw", "テキストの文字コード（raw, sjis, auto）")
	fs.IntVar(&config.Track, "track", -1, "対象トラック番号（-1は全トラック）")
	fs.BoolVar(&noLoop, "no-loop", false, "ループしない")
	fs.StringVar(&filterName, "filter", "all", "出力するイベント（all, notes, voice, cc）")
	fs.IntVar(&config.Events, "limit", 0, "events で表示する最大件数")
	fs.StringVar(&mode, "mode", "cc", "値の計算方法（cc, envelope, curve）")
	fs.IntVar(&controller, "cc", 1, "CC番号")
	fs.StringVar(&note, "note", "all", "ノートフィルタ（例: C#4, C#*, *4, all）")
	fs.StringVar(&adsr, "adsr", playback.DefaultEnvelope.String(), "エンベロープ（attack,decay,sustain,release）")
	fs.StringVar(&curve, "curve", "0:0,0.1:1,1:0", "カーブ（time:value,...）")
	fs.StringVar(&at, "at", "", "問い合わせ時刻（秒、カンマ区切り）")
	fs.IntVar(&config.Samples, "samples", 200, "標本数")
	fs.StringVar(&config.Output, "output", "", "出力ファイル")
	fs.StringVar(&config.Output, "o", "", "出力ファイル（短縮形）")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFontファイルのパス")
	fs.Float64Var(&durationSec, "duration", 0, "render / play の長さ（秒）")
	fs.Float64Var(&durationSec, "d", 0, "render / play の長さ（秒）（短縮形）")
	fs.BoolVar(&config.Mute, "mute", false, "play で音を出さない")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// 環境変数からログ形式を取得（コマンドラインフラグが優先）
	if config.LogFormat == "text" {
		if logFormatEnv := os.Getenv("LOG_FORMAT"); logFormatEnv != "" {
			config.LogFormat = strings.ToLower(logFormatEnv)
		}
	}

	// 環境変数からSoundFontを取得（コマンドラインフラグが優先）
	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("SOUNDFONT")
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	if durationSec < 0 {
		return nil, fmt.Errorf("duration must be non-negative, got %v", durationSec)
	}
	config.Duration = time.Duration(durationSec * float64(time.Second))

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}
	if config.LogFormat != "text" && config.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format: %s (must be text or json)", config.LogFormat)
	}

	var err error
	if config.Encoding, err = smf.ParseTextEncoding(encoding); err != nil {
		return nil, err
	}
	if config.Track < -1 {
		return nil, fmt.Errorf("track must be -1 or a track index, got %d", config.Track)
	}
	config.Loop = !noLoop
	if config.Events < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", config.Events)
	}
	if config.Samples <= 0 {
		return nil, fmt.Errorf("samples must be positive, got %d", config.Samples)
	}

	// 値の計算方法
	if config.Control.Mode, err = playback.ParseMode(mode); err != nil {
		return nil, err
	}
	if controller < 0 || controller > 127 {
		return nil, fmt.Errorf("cc must be between 0 and 127, got %d", controller)
	}
	config.Control.Controller = uint8(controller)
	if config.Control.Filter, err = playback.ParseNoteFilter(note); err != nil {
		return nil, err
	}
	if config.Filter, err = playback.ParseFilter(filterName, config.Control.Filter); err != nil {
		return nil, err
	}
	if config.Control.Envelope, err = playback.ParseEnvelope(adsr); err != nil {
		return nil, err
	}
	if config.Control.Curve, err = playback.ParseKeyframes(curve); err != nil {
		return nil, err
	}
	if config.At, err = parseTimes(at); err != nil {
		return nil, err
	}

	// 位置引数（サブコマンドとMIDIファイル）
	rest := fs.Args()
	config.Command = DefaultCommand
	if len(rest) > 0 && isCommand(rest[0]) {
		config.Command = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		config.MIDIPath = rest[0]
	}
	if len(rest) > 1 {
		return nil, fmt.Errorf("unexpected argument: %s", rest[1])
	}

	return config, nil
}

func isCommand(s string) bool {
	for _, c := range Commands {
		if s == c {
			return true
		}
	}
	return false
}

// parseTimes カンマ区切りの秒数を解析する
func parseTimes(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var times []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q: %w", part, err)
		}
		times = append(times, v)
	}
	return times, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// 値を取るフラグは次の引数も追加（-t 5 や --track -1 のような場合）
			// --name=value 形式とブール型フラグは対象外
			if !strings.Contains(arg, "=") && !boolFlags[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `midity - Standard MIDI File inspector and player

Usage:
  midity [command] [options] <file.mid>

Commands:
  info      トラック一覧（名前、テンポ、長さ、イベント数）を表示（デフォルト）
  events    トラックのイベントを表示
  sample    指定時刻の値（CC、エンベロープ、カーブ）を表示
  plot      値の変化をPNG画像に描画
  render    SoundFontで合成してWAVファイルに書き出す
  play      SoundFontで合成して再生

Options:
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --log-format <format>       ログ形式: text, json（デフォルト: text）
  --encoding <enc>            テキストの文字コード: raw, sjis, auto（デフォルト: raw）
  --track <n>                 対象トラック番号（デフォルト: -1 = 全トラック）
  --no-loop                   トラックの末尾でループしない
  --filter <name>             出力するイベント: all, notes, voice, cc（デフォルト: all）
                              notes は --note のフィルタを適用
  --limit <n>                 events で表示する最大件数（デフォルト: 無制限）
  --mode <mode>               値の計算方法: cc, envelope, curve（デフォルト: cc）
  --cc <n>                    CC番号（デフォルト: 1）
  --note <filter>             ノートフィルタ: C#4, C#*, *4, all（デフォルト: all）
  --adsr <a,d,s,r>            エンベロープ（デフォルト: %s）
  --curve <t:v,...>           カーブのキーフレーム（デフォルト: 0:0,0.1:1,1:0）
  --at <t1,t2,...>            sample の問い合わせ時刻（秒）
  --samples <n>               plot / sample の標本数（デフォルト: 200）
  -o, --output <path>         出力ファイル（plot: PNG, render: WAV）
  --soundfont <path>          SoundFontファイル（デフォルト: GeneralUser-GS.sf2 を検索）
  -d, --duration <seconds>    render / play の長さ（デフォルト: 最長トラック1周分）
  --mute                      play で音を出さずに進行だけを確認
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -h, --help                  このヘルプを表示

Environment Variables:
  LOG_LEVEL=<level>           ログレベル
  LOG_FORMAT=<format>         ログ形式
  SOUNDFONT=<path>            SoundFontファイルのパス
  TIMEOUT=<seconds>           タイムアウト時間（秒）

Examples:
  midity song.mid                                トラック一覧を表示
  midity events --track 1 --filter notes song.mid
  midity sample --mode envelope --note C4 --at 0,0.5,1 song.mid
  midity plot --mode cc --cc 7 -o cc7.png song.mid
  midity render -d 30 -o song.wav song.mid
  SOUNDFONT=/path/to/font.sf2 midity play song.mid
`, playback.DefaultEnvelope)
}
