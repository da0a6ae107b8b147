package domain

import "time"

// apiCallTimeout caps the time for a single upstream call from a tool handler.
const apiCallTimeout = 15 * time.Second

// BatchCallTimeout caps the time for handler flows that fan out multiple
// upstream calls, such as concurrent transcript fetches. Transports that put
// their own deadline on a request must stay above this value.
const BatchCallTimeout = 60 * time.Second
