package capgains

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeEvents_RoundTrip(t *testing.T) {
	basis := d("-1200")
	in := []Event{
		TradeEvent{
			Date: NewDate(2024, time.January, 10), Time: "09:30:00",
			Symbol: "ABC", Currency: "USD",
			Quantity: d("100"), Proceeds: d("-1000"), CommFee: d("-2"),
		},
		TradeEvent{
			Date: NewDate(2024, time.June, 15), Time: "14:05:12",
			Symbol: "ABC", Currency: "USD",
			Quantity: d("-100"), Proceeds: d("1500"), CommFee: d("-3"),
			ReportedBasis: &basis,
		},
		TransferEvent{
			Date: NewDate(2024, time.March, 1), Symbol: "XYZ", Currency: "EUR",
			Direction: TransferIn, Quantity: d("50"), MarketValue: d("2500"),
		},
	}

	var buf bytes.Buffer
	if err := EncodeEvents(&buf, in...); err != nil {
		t.Fatalf("EncodeEvents() error = %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != len(in) {
		t.Fatalf("encoded stream has %d lines, want %d", got, len(in))
	}

	out, err := DecodeEvents(&buf)
	if err != nil {
		t.Fatalf("DecodeEvents() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("DecodeEvents() = %d events, want %d", len(out), len(in))
	}

	sell, ok := out[1].(TradeEvent)
	if !ok {
		t.Fatalf("out[1] = %T, want TradeEvent", out[1])
	}
	if sell.Time != "14:05:12" || !sell.Quantity.Equal(d("-100")) {
		t.Errorf("decoded sell = %+v, want time 14:05:12 qty -100", sell)
	}
	if sell.ReportedBasis == nil || !sell.ReportedBasis.Equal(d("-1200")) {
		t.Errorf("decoded ReportedBasis = %v, want -1200", sell.ReportedBasis)
	}

	xfer, ok := out[2].(TransferEvent)
	if !ok {
		t.Fatalf("out[2] = %T, want TransferEvent", out[2])
	}
	if xfer.Direction != TransferIn || !xfer.MarketValue.Equal(d("2500")) {
		t.Errorf("decoded transfer = %+v, want in/2500", xfer)
	}
}

func TestDecodeEvents_PreservesFileOrder(t *testing.T) {
	// The decoder must not sort: ordering is SortEvents' job.
	stream := `{"command":"trade","date":"2024-06-15","symbol":"ABC","currency":"USD","quantity":-10,"proceeds":150,"commFee":0}
{"command":"trade","date":"2024-01-10","symbol":"ABC","currency":"USD","quantity":10,"proceeds":-100,"commFee":0}
`
	events, err := DecodeEvents(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("DecodeEvents() error = %v", err)
	}
	if !events[0].When().After(events[1].When()) {
		t.Errorf("events reordered: got %v then %v", events[0].When(), events[1].When())
	}
}

func TestDecodeEvents_SkipsEmptyLines(t *testing.T) {
	stream := "\n{\"command\":\"trade\",\"date\":\"2024-01-10\",\"symbol\":\"ABC\",\"currency\":\"USD\",\"quantity\":10,\"proceeds\":-100,\"commFee\":0}\n\n"
	events, err := DecodeEvents(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("DecodeEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Errorf("DecodeEvents() = %d events, want 1", len(events))
	}
}

func TestDecodeEvents_UnknownCommand(t *testing.T) {
	_, err := DecodeEvents(strings.NewReader(`{"command":"split","date":"2024-01-10"}`))
	if err == nil {
		t.Fatal("DecodeEvents(unknown command) error = nil, want error")
	}
	if !strings.Contains(err.Error(), "split") {
		t.Errorf("error %q does not name the offending command", err)
	}
}

func TestDecodeEvents_MalformedLine(t *testing.T) {
	if _, err := DecodeEvents(strings.NewReader(`{not json`)); err == nil {
		t.Error("DecodeEvents(malformed) error = nil, want error")
	}
}

func TestTradeEvent_MarshalOmitsEmptyOptionals(t *testing.T) {
	data, err := buy(10, "100", "-1000", "-2").MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	s := string(data)
	if strings.Contains(s, `"time"`) || strings.Contains(s, `"reportedBasis"`) {
		t.Errorf("marshaled trade %s carries empty optional fields", s)
	}
	if !strings.HasPrefix(s, `{"command":"trade"`) {
		t.Errorf("marshaled trade %s does not lead with its command", s)
	}
	// Decimals serialize as bare JSON numbers, not strings.
	if !strings.Contains(s, `"quantity":100`) {
		t.Errorf("marshaled trade %s quantity is not a bare number", s)
	}
}
