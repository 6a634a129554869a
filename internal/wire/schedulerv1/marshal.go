package schedulerv1

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every type in this package. The codec dispatches
// through it so connect can move our messages without generated code.
type Message interface {
	MarshalWire() []byte
	UnmarshalWire(b []byte) error
}

var (
	_ Message = (*Team)(nil)
	_ Message = (*PlayableTeamCollection)(nil)
	_ Message = (*TimeSlot)(nil)
	_ Message = (*Field)(nil)
	_ Message = (*CoachConflict)(nil)
	_ Message = (*ScheduledInput)(nil)
	_ Message = (*Booked)(nil)
	_ Message = (*Reservation)(nil)
	_ Message = (*ScheduledOutput)(nil)
)

func appendMessage(b []byte, tag protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, tag, protowire.BytesType)
	return protowire.AppendBytes(b, m.MarshalWire())
}

// skipField discards an unknown field so old decoders tolerate new tags.
func skipField(b []byte, num protowire.Number, typ protowire.Type) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func (t *Team) MarshalWire() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.UniqueID))
	return b
}

func (t *Team) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			t.UniqueID = uint32(v)
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (c *PlayableTeamCollection) MarshalWire() []byte {
	var b []byte
	for _, team := range c.Teams {
		b = appendMessage(b, 1, team)
	}
	return b
}

func (c *PlayableTeamCollection) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			team := new(Team)
			if err := team.UnmarshalWire(v); err != nil {
				return err
			}
			c.Teams = append(c.Teams, team)
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (s *TimeSlot) MarshalWire() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Start))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.End))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(s.Concurrency))
	return b
}

func (s *TimeSlot) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if typ == protowire.VarintType && num >= 1 && num <= 3 {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			switch num {
			case 1:
				s.Start = int64(v)
			case 2:
				s.End = int64(v)
			case 3:
				s.Concurrency = uint32(v)
			}
			b = b[n:]
			continue
		}
		n, err := skipField(b, num, typ)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func (f *Field) MarshalWire() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.UniqueID))
	for _, slot := range f.TimeSlots {
		b = appendMessage(b, 2, slot)
	}
	return b
}

func (f *Field) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			f.UniqueID = uint32(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			slot := new(TimeSlot)
			if err := slot.UnmarshalWire(v); err != nil {
				return err
			}
			f.TimeSlots = append(f.TimeSlots, slot)
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (c *CoachConflict) MarshalWire() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.UniqueID))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.RegionID))
	for _, team := range c.Teams {
		b = appendMessage(b, 3, team)
	}
	return b
}

func (c *CoachConflict) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			c.UniqueID = uint32(v)
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			c.RegionID = uint32(v)
			b = b[n:]
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			team := new(Team)
			if err := team.UnmarshalWire(v); err != nil {
				return err
			}
			c.Teams = append(c.Teams, team)
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (in *ScheduledInput) MarshalWire() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(in.UniqueID))
	for _, group := range in.TeamGroups {
		b = appendMessage(b, 2, group)
	}
	for _, field := range in.Fields {
		b = appendMessage(b, 3, field)
	}
	for _, conflict := range in.CoachConflicts {
		b = appendMessage(b, 4, conflict)
	}
	if in.IsPractice {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}

func (in *ScheduledInput) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			in.UniqueID = uint32(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			group := new(PlayableTeamCollection)
			if err := group.UnmarshalWire(v); err != nil {
				return err
			}
			in.TeamGroups = append(in.TeamGroups, group)
			b = b[n:]
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			field := new(Field)
			if err := field.UnmarshalWire(v); err != nil {
				return err
			}
			in.Fields = append(in.Fields, field)
			b = b[n:]
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			conflict := new(CoachConflict)
			if err := conflict.UnmarshalWire(v); err != nil {
				return err
			}
			in.CoachConflicts = append(in.CoachConflicts, conflict)
			b = b[n:]
		case num == 5 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			in.IsPractice = v != 0
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (bk *Booked) MarshalWire() []byte {
	var b []byte
	if bk.HomeTeam != nil {
		b = appendMessage(b, 1, bk.HomeTeam)
	}
	if bk.AwayTeam != nil {
		b = appendMessage(b, 2, bk.AwayTeam)
	}
	return b
}

func (bk *Booked) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case (num == 1 || num == 2) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			team := new(Team)
			if err := team.UnmarshalWire(v); err != nil {
				return err
			}
			if num == 1 {
				bk.HomeTeam = team
			} else {
				bk.AwayTeam = team
			}
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (r *Reservation) MarshalWire() []byte {
	var b []byte
	if r.Field != nil {
		b = appendMessage(b, 1, r.Field)
	}
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Start))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.End))
	if r.Booking != nil {
		b = appendMessage(b, 4, r.Booking)
	}
	return b
}

func (r *Reservation) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			field := new(Field)
			if err := field.UnmarshalWire(v); err != nil {
				return err
			}
			r.Field = field
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.Start = int64(v)
			b = b[n:]
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r.End = int64(v)
			b = b[n:]
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			booking := new(Booked)
			if err := booking.UnmarshalWire(v); err != nil {
				return err
			}
			r.Booking = booking
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

func (out *ScheduledOutput) MarshalWire() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(out.UniqueID))
	for _, r := range out.TimeSlots {
		b = appendMessage(b, 2, r)
	}
	return b
}

func (out *ScheduledOutput) UnmarshalWire(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			out.UniqueID = uint32(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			r := new(Reservation)
			if err := r.UnmarshalWire(v); err != nil {
				return err
			}
			out.TimeSlots = append(out.TimeSlots, r)
			b = b[n:]
		default:
			n, err := skipField(b, num, typ)
			if err != nil {
				return err
			}
			b = b[n:]
		}
	}
	return nil
}

// Codec moves schedulerv1 messages through connect. It registers under the
// proto codec name so gRPC peers negotiate the standard content type.
type Codec struct{}

func (Codec) Name() string { return "proto" }

func (Codec) Marshal(m any) ([]byte, error) {
	msg, ok := m.(Message)
	if !ok {
		return nil, fmt.Errorf("schedulerv1: cannot marshal %T", m)
	}
	return msg.MarshalWire(), nil
}

func (Codec) Unmarshal(b []byte, m any) error {
	msg, ok := m.(Message)
	if !ok {
		return fmt.Errorf("schedulerv1: cannot unmarshal into %T", m)
	}
	return msg.UnmarshalWire(b)
}
