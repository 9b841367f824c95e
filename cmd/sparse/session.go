package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/iterator"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/common/log"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/config"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/envelope"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/iterable"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/stats"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/store"
	"github.com/davide-maestroni/robo-fashion-sub002/pkg/telemetry"
)

var (
	errUsage          = errors.New("usage")
	errUnknownCommand = errors.New("unknown command")
)

// session holds the store edited by the shell and the current traversal
// configuration over it
type session struct {
	out       io.Writer
	logger    log.Logger
	tel       telemetry.Telemetry
	collector *stats.AtomicCollector
	store     *store.Map[int64, string]
	view      *iterable.Iterable[int64, string]
	opts      []iterable.Option

	encoder *envelope.Encoder[int64, string]
	decoder *envelope.Decoder[int64, string]
}

func newSession(cfg *config.Config, out io.Writer, logger log.Logger, tel telemetry.Telemetry) (*session, error) {
	compression, err := envelope.ParseCompression(cfg.Envelope.Compression)
	if err != nil {
		return nil, err
	}

	collector := stats.NewAtomicCollector()
	envOpts := []envelope.Option{
		envelope.WithCompression(compression),
		envelope.WithZstdLevel(cfg.Envelope.ZstdLevel),
		envelope.WithStats(collector),
		envelope.WithTelemetry(tel),
	}
	encoder, err := envelope.NewEncoder(envelope.Int64(), envelope.String(), envOpts...)
	if err != nil {
		return nil, err
	}
	decoder, err := envelope.NewDecoder(envelope.Int64(), envelope.String(), envOpts...)
	if err != nil {
		encoder.Close()
		return nil, err
	}

	s := &session{
		out:       out,
		logger:    logger.WithField("component", telemetry.ComponentShell),
		tel:       tel,
		collector: collector,
		encoder:   encoder,
		decoder:   decoder,
		opts: []iterable.Option{
			iterable.WithLogger(logger),
			iterable.WithMetrics(iterable.MultiMetrics{
				iterable.NewStatsMetrics(collector),
				iterable.NewTelemetryMetrics(tel),
			}),
		},
	}
	if cfg.Shell.KeyKind == config.KeyKindArray {
		s.store = store.NewArrayMap[int64, string]()
	} else {
		s.store = store.NewLongMap[string]()
	}
	s.reset()
	return s, nil
}

func (s *session) close() {
	s.encoder.Close()
	s.decoder.Close()
}

func (s *session) reset() {
	s.view = iterable.New[int64, string](s.store, s.opts...)
}

// prompt returns the prompt decorated with the current configuration
func (s *session) prompt(base string) string {
	var tags []string
	if n := s.view.Chain().Len(); n > 0 {
		tags = append(tags, fmt.Sprintf("%d filters", n))
	}
	if s.view.IsReversed() {
		tags = append(tags, "reversed")
	}
	if len(tags) == 0 {
		return base
	}
	return fmt.Sprintf("[%s] %s", strings.Join(tags, ", "), base)
}

// exec runs one command line inside a span. It returns true when the shell
// should exit.
func (s *session) exec(line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}

	_, span := s.tel.StartSpan(context.Background(), "shell.exec",
		attribute.String(telemetry.AttrComponent, telemetry.ComponentShell),
		attribute.String(telemetry.AttrCommand, strings.ToUpper(parts[0])))
	defer span.End()

	quit, err := s.dispatch(parts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return quit, err
}

func (s *session) dispatch(parts []string) (bool, error) {
	cmd := strings.ToUpper(parts[0])
	args := parts[1:]

	if strings.HasPrefix(cmd, ".") {
		switch strings.ToLower(cmd) {
		case ".help":
			fmt.Fprint(s.out, helpText)
		case ".exit":
			return true, nil
		case ".stats":
			s.printStats()
		default:
			return false, fmt.Errorf("%w: %s", errUnknownCommand, parts[0])
		}
		return false, nil
	}

	switch cmd {
	case "PUT":
		if len(args) < 2 {
			return false, fmt.Errorf("%w: PUT key value", errUsage)
		}
		key, err := parseKey(args[0])
		if err != nil {
			return false, err
		}
		s.store.Put(key, strings.Join(args[1:], " "))
		fmt.Fprintln(s.out, "Value stored")

	case "GET":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: GET key", errUsage)
		}
		key, err := parseKey(args[0])
		if err != nil {
			return false, err
		}
		if v, ok := s.store.Get(key); ok {
			fmt.Fprintln(s.out, v)
		} else {
			fmt.Fprintln(s.out, "Key not found")
		}

	case "DEL", "DELETE":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: DEL key", errUsage)
		}
		key, err := parseKey(args[0])
		if err != nil {
			return false, err
		}
		if s.store.Delete(key) {
			fmt.Fprintln(s.out, "Key deleted")
		} else {
			fmt.Fprintln(s.out, "Key not found")
		}

	case "SHOW":
		fmt.Fprintln(s.out, s.store.String())

	case "ONLY", "BUT":
		if len(args) == 0 {
			return false, fmt.Errorf("%w: %s clause [args...]", errUsage, cmd)
		}
		narrowing := s.view.Only()
		if cmd == "BUT" {
			narrowing = s.view.But()
		}
		view, err := applyClause(narrowing, strings.ToUpper(args[0]), args[1:])
		if err != nil {
			return false, err
		}
		s.view = view

	case "REVERSE":
		s.view = s.view.Reverse()

	case "RESET":
		s.reset()

	case "KEYS":
		fmt.Fprintln(s.out, formatSlice(s.view.Keys()))

	case "VALUES":
		fmt.Fprintln(s.out, formatSlice(s.view.Values()))

	case "SCAN", "ENTRIES":
		s.printPairs(s.view.Pairs())

	case "COUNT":
		fmt.Fprintln(s.out, s.view.Count())

	case "CONTAINS":
		if len(args) == 0 {
			return false, fmt.Errorf("%w: CONTAINS value...", errUsage)
		}
		fmt.Fprintln(s.out, s.view.ContainsAnyValue(args...))

	case "REMOVE":
		deleted := s.view.Remove()
		s.logger.Info("removed %d entries", deleted.Count())
		s.printPairs(deleted.Pairs())
		s.reset()

	case "RETAIN":
		deleted := s.view.Retain()
		s.logger.Info("removed %d entries", deleted.Count())
		s.printPairs(deleted.Pairs())
		s.reset()

	case "SAVE":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: SAVE path", errUsage)
		}
		if err := s.save(args[0]); err != nil {
			return false, err
		}

	case "LOAD":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: LOAD path", errUsage)
		}
		if err := s.load(args[0]); err != nil {
			return false, err
		}

	default:
		return false, fmt.Errorf("%w: %s", errUnknownCommand, parts[0])
	}
	return false, nil
}

func applyClause(n iterable.Narrowing[int64, string], clause string, args []string) (*iterable.Iterable[int64, string], error) {
	switch clause {
	case "FIRST", "LAST", "FROM", "TO":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: %s n", errUsage, clause)
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", args[0])
		}
		switch clause {
		case "FIRST":
			return n.First(v), nil
		case "LAST":
			return n.Last(v), nil
		case "FROM":
			return n.From(v), nil
		default:
			return n.To(v), nil
		}

	case "INDEX":
		indices := make([]int, 0, len(args))
		for _, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return nil, fmt.Errorf("invalid index %q", a)
			}
			indices = append(indices, v)
		}
		return n.Index(indices...), nil

	case "RANGE":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: RANGE from to", errUsage)
		}
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", args[0])
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", args[1])
		}
		return n.Range(from, to), nil

	case "KEY", "KEYS":
		keys, err := parseKeys(args)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: %s key...", errUsage, clause)
		}
		return n.Keys(keys...), nil

	case "BETWEEN":
		keys, err := parseKeys(args)
		if err != nil {
			return nil, err
		}
		if len(keys) != 2 {
			return nil, fmt.Errorf("%w: BETWEEN start end", errUsage)
		}
		return n.KeysBetween(keys[0], keys[1]), nil

	case "VALUE", "VALUES":
		if len(args) == 0 {
			return nil, fmt.Errorf("%w: %s value...", errUsage, clause)
		}
		return n.Values(args...), nil

	default:
		return nil, fmt.Errorf("%w: clause %s", errUnknownCommand, clause)
	}
}

func parseKey(arg string) (int64, error) {
	key, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid key %q: keys are 64 bit integers", arg)
	}
	return key, nil
}

func parseKeys(args []string) ([]int64, error) {
	keys := make([]int64, 0, len(args))
	for _, a := range args {
		k, err := parseKey(a)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func formatSlice[T any](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprint(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s *session) printPairs(pairs []iterator.Pair[int64, string]) {
	for _, p := range pairs {
		fmt.Fprintf(s.out, "%d: %s\n", p.Key, p.Value)
	}
	fmt.Fprintf(s.out, "%d entries\n", len(pairs))
}

// save writes the entries of the current view to path
func (s *session) save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	n, err := s.encoder.Encode(f, s.view.Pairs())
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	fmt.Fprintf(s.out, "Saved %d entries (%d bytes) to %s\n", s.view.Count(), n, path)
	return nil
}

// load reads the entries saved in path into the store
func (s *session) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	n, err := s.decoder.ReadInto(f, s.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Loaded %d entries from %s\n", n, path)
	return nil
}

func (s *session) printStats() {
	got := s.collector.GetStats()

	getUint64 := func(key string) uint64 {
		if v, ok := got[key].(uint64); ok {
			return v
		}
		return 0
	}

	fmt.Fprintln(s.out, "Store:")
	fmt.Fprintf(s.out, "  Entries: %d (%s)\n", s.store.Size(), s.store.Kind())

	fmt.Fprintln(s.out, "Operations:")
	var ops []string
	for key := range got {
		if strings.HasSuffix(key, "_ops") {
			ops = append(ops, key)
		}
	}
	slices.Sort(ops)
	for _, key := range ops {
		op := strings.TrimSuffix(key, "_ops")
		line := fmt.Sprintf("  %s: %d", op, getUint64(key))
		if ts, ok := got["last_"+op+"_time"].(int64); ok && ts > 0 {
			line += fmt.Sprintf(" (last %s)", time.Unix(0, ts).Format(time.RFC3339))
		}
		fmt.Fprintln(s.out, line)
	}

	fmt.Fprintln(s.out, "Elements:")
	fmt.Fprintf(s.out, "  Scanned: %d\n", getUint64("elements_scanned"))
	fmt.Fprintf(s.out, "  Accepted: %d\n", getUint64("elements_accepted"))
	fmt.Fprintf(s.out, "  Removed: %d\n", getUint64("elements_removed"))

	fmt.Fprintln(s.out, "Envelope:")
	fmt.Fprintf(s.out, "  Encoded: %d bytes\n", getUint64("total_bytes_encoded"))
	fmt.Fprintf(s.out, "  Decoded: %d bytes\n", getUint64("total_bytes_decoded"))

	if errs, ok := got["errors"].(map[string]uint64); ok && len(errs) > 0 {
		fmt.Fprintln(s.out, "Errors:")
		for _, name := range slices.Sorted(maps.Keys(errs)) {
			fmt.Fprintf(s.out, "  %s: %d\n", name, errs[name])
		}
	}
}
