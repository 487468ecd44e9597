// Package client talks to the mindgraph backend.
//
// A [Client] moves whole snapshots: loads return the stored graph, saves
// send the caller's snapshot as a full replacement and return what the
// backend persisted. Saves are last-write-wins; callers adopt the returned
// snapshot wholesale.
//
//	c, err := client.New("http://localhost:8081")
//	snap, err := c.LoadSimple(ctx)
//	...
//	snap, err = c.SaveSimple(ctx, m.Snapshot())
//
// Every failure is a [*LoadError] or [*SaveError]. Both carry a code for
// [errors.GetCode] and wrap the cause: [graph.ErrShape] for payloads
// missing an envelope field, [ErrNetwork] for transport failures and
// [*StatusError] for non-2xx responses. Transport failures, 5xx and 429
// responses are retried with exponential backoff.
//
// [errors.GetCode]: github.com/matzehuels/mindgraph/pkg/errors.GetCode
package client
