package splitcast

func (s *Splitter) logDrop(id ClientID, drops uint64) {
	s.log.Debug().
		Uint64("client_id", uint64(id)).
		Uint64("drops", drops).
		Msgf("splitcast: forced drop on slow client %d", id)
}

func (s *Splitter) logTeardown(kind string, clientsAffected int) {
	s.log.Debug().
		Int("clients_affected", clientsAffected).
		Msgf("splitcast: %s woke %d clients", kind, clientsAffected)
}
