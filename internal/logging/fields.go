package logging

import "log/slog"

// Relay identifiers

func Room(name string) slog.Attr {
	return slog.String("room", name)
}

func Conn(id string) slog.Attr {
	return slog.String("conn_id", id)
}

func Participant(id string) slog.Attr {
	return slog.String("participant", id)
}

func MessageType(t string) slog.Attr {
	return slog.String("type", t)
}

func Remote(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Error handling

// Err returns an empty attribute for a nil error, which handlers omit.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
