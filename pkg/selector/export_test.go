package selector

// WaitIdle blocks until every background fetch has resolved.
func (s *Selector) WaitIdle() {
	s.wg.Wait()
}
