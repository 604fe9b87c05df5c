// Package toolbake is the execution runtime of a tool platform: users
// assemble small utilities from declarative input/output widgets wired to a
// handler function, and this package owns the protocol between the two.
//
// # Overview
//
// A widget change produces a trigger. The scheduler serializes triggers per
// instance (one handler body in flight, queued triggers coalesce). The
// executor calls the handler with a frozen input snapshot and a progress-push
// callback; the handler may acquire heavy optional modules through the
// memoized per-instance loader, push partial updates any number of times, and
// finally settle with a partial result map. Pushes and the result merge into
// the widget value store in strict call order; updated label widgets pass
// through the fragment lifecycle manager, which guarantees
// cleanup-before-remount for interactive payloads.
//
// # Key concepts
//
//   - Partial results: keys absent from a result leave the stored value
//     untouched, so updating a progress bar never re-renders an unrelated
//     label.
//   - Retained state: the handler factory runs once per instance; whatever
//     its closure captures survives across invocations and is never touched
//     by the runtime.
//   - Uniform failure channel: handler errors, rejected applies, and fragment
//     behavior errors are all caught at the runtime boundary and delivered to
//     the WithOnFailure hook; nothing here is fatal to the host.
//
// See Handler, Platform, and Instance for the core surface, and
// NewToolDefinition / NewPlatform for setup.
//
// # Example
//
//	widgets := []toolbake.WidgetDefinition{
//	    {ID: "name", Kind: toolbake.KindText},
//	    {ID: "greeting", Kind: toolbake.KindText},
//	}
//	def, err := toolbake.NewToolDefinition("greeter", "Greet someone", widgets,
//	    func(_ *toolbake.Env) toolbake.Handler {
//	        return func(_ context.Context, inv toolbake.Invocation, _ func(toolbake.Values) error) (toolbake.Result, error) {
//	            name, _ := inv.Inputs["name"]
//	            return toolbake.Result{Values: toolbake.Values{
//	                "greeting": toolbake.TextValue("hello, " + name.Text),
//	            }}, nil
//	        }
//	    })
//	if err != nil { ... }
//	p := toolbake.NewPlatform()
//	p.Register(def)
//	inst, err := p.Open("greeter")
package toolbake
