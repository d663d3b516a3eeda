package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell is the operator console. Operators pick a slot and a vehicle type,
// or let the lot assign one, and the slot grid is re-rendered after every
// change.
type Shell struct {
	lot       *InstrumentedLot
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *TelemetryProvider
	now       func() time.Time
}

func NewShell(lot *InstrumentedLot, telemetry *TelemetryProvider, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		lot:       lot,
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: telemetry,
		now:       time.Now,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil {
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		quit := s.processCommand(cmdCtx, input)
		cmdSpan.End()

		if quit {
			break
		}
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) bool {
	span := trace.SpanFromContext(ctx)

	parts := strings.Fields(input)
	command := strings.ToLower(parts[0])
	args := parts[1:]
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "park":
		s.handlePark(ctx, args)
	case "park_at":
		s.handleParkAt(ctx, args)
	case "leave":
		s.handleLeave(ctx, args)
	case "leave_slot":
		s.handleLeaveSlot(ctx, args)
	case "find", "slot_number_for_registration_number":
		s.handleFind(ctx, args)
	case "status":
		renderStatus(s.out, s.lot.Snapshot(ctx))
	case "revenue":
		fmt.Fprintf(s.out, "Total revenue: %s\n", formatMoney(s.lot.Snapshot(ctx).TotalRevenue))
	case "rates":
		renderRates(s.out, s.lot.Rates())
	case "help":
		s.printHelp()
	case "exit", "quit":
		return true
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		fmt.Fprintf(s.out, "Unknown command: %s\n", command)
	}
	return false
}

func (s *Shell) handlePark(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: park <plate> [car|bike|truck]")
		return
	}

	plate, typeText := splitPlateAndType(args)
	outcome, err := s.lot.EnterVehicle(ctx, plate, typeText, s.now())
	if err != nil {
		s.printError(outcome.Message, err)
		return
	}

	fmt.Fprintln(s.out, outcome.Message)
	renderStatus(s.out, s.lot.Snapshot(ctx))
}

func (s *Shell) handleParkAt(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: park_at <slot_number> <plate> [car|bike|truck]")
		return
	}

	slotNumber, err := parseSlotNumber(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "Invalid slot number")
		return
	}

	plate, typeText := splitPlateAndType(args[1:])
	outcome, err := s.lot.EnterVehicleAtSlot(ctx, slotNumber, plate, typeText, s.now())
	if err != nil {
		s.printError("", err)
		return
	}

	fmt.Fprintln(s.out, outcome.Message)
	renderStatus(s.out, s.lot.Snapshot(ctx))
}

func (s *Shell) handleLeave(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: leave <plate>")
		return
	}

	outcome, err := s.lot.ExitVehicle(ctx, strings.Join(args, " "), s.now())
	if err != nil {
		s.printError(outcome.Message, err)
		return
	}

	s.printExit(ctx, outcome)
}

func (s *Shell) handleLeaveSlot(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: leave_slot <slot_number>")
		return
	}

	slotNumber, err := parseSlotNumber(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "Invalid slot number")
		return
	}

	outcome, err := s.lot.ExitSlot(ctx, slotNumber, s.now())
	if err != nil {
		s.printError("", err)
		return
	}

	s.printExit(ctx, outcome)
}

func (s *Shell) handleFind(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: find <plate>")
		return
	}

	view, err := s.lot.FindVehicle(ctx, strings.Join(args, " "))
	if errors.Is(err, ErrVehicleNotFound) {
		fmt.Fprintln(s.out, "Not found")
		return
	}
	if err != nil {
		s.printError("", err)
		return
	}

	fmt.Fprintf(s.out, "%d\n", view.ID)
}

func (s *Shell) printExit(ctx context.Context, outcome ExitOutcome) {
	fmt.Fprintln(s.out, outcome.Message)
	fmt.Fprintf(s.out, "Fee: %s (%d h %s)\n", formatMoney(outcome.Fee), outcome.Hours, outcome.Type)
	renderStatus(s.out, s.lot.Snapshot(ctx))
}

func (s *Shell) printError(message string, err error) {
	if message != "" {
		fmt.Fprintln(s.out, message)
		return
	}
	fmt.Fprintf(s.out, "Error: %s\n", err.Error())
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  park <plate> [car|bike|truck]")
	fmt.Fprintln(s.out, "  park_at <slot_number> <plate> [car|bike|truck]")
	fmt.Fprintln(s.out, "  leave <plate>")
	fmt.Fprintln(s.out, "  leave_slot <slot_number>")
	fmt.Fprintln(s.out, "  find <plate>")
	fmt.Fprintln(s.out, "  status | revenue | rates | help | exit")
}
