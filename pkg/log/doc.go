/*
Package log provides structured logging for fluxdns using zerolog.

A single global Logger is configured once at startup with Init; every
component derives a child logger that stamps its context on each line:

	log.Init(log.Config{Level: log.ParseLevel("debug"), JSONOutput: true})

	logger := log.WithComponent("directory")
	logger.Warn().Str("peer", addr).Msg("peer unreachable")

	appLogger := log.WithApp("mcserver1")
	appLogger.Info().Str("ip", ip).Msg("created record")

	passLogger := log.WithPassID(id)
	passLogger.Info().Msg("starting reconciliation pass")

Console output (the default) is meant for people; JSON output is meant for
log shippers. Both carry RFC 3339 timestamps.

Application outcomes such as "no healthy endpoint" are logged at warn level,
provider rejections at error level with the provider's error payload attached.
*/
package log
