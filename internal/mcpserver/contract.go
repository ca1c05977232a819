package mcpserver

// CanvasContract describes daily canvases and pin semantics for LLM
// consumers driving the tools.
const CanvasContract = `# Daily Canvas Contract

One canvas file exists per day. Items you pin on the latest day are copied
into the next day's canvas when it is created.

## Files

- Daily canvases live in the configured folder (default ` + "`" + `daily-canvas/` + "`" + `)
  and are named after the day: ` + "`" + `daily-canvas/2025-01-20.canvas` + "`" + `.
- Files use the JSON Canvas format: ` + "`" + `{"nodes": [...], "edges": [...]}` + "`" + `.
- Each new daily canvas gets a file node linking the daily note
  ` + "`" + `journal/2025-01-20.md` + "`" + `.

## Pins

1. Pins only apply on the **latest** daily canvas (the most recently created
   one). On any other canvas ` + "`" + `pin_selection` + "`" + ` answers "not applicable".
2. Pin and unpin act on the current selection. Call ` + "`" + `select_items` + "`" + ` first.
3. An empty selection, or no open canvas, also answers "not applicable".
4. Deleting an item unpins it.

## Carryover

- Carryover happens once, when today's canvas is created by ` + "`" + `open_today` + "`" + `.
  Opening an existing canvas never copies anything.
- Pinned items keep their order, position, and content. Edges are not copied.
- Pinned ids that no longer exist in the previous canvas are skipped.

## Example

` + "```" + `text
open_today                       -> creates 2025-01-21 from 2025-01-20's pins
read_active_canvas               -> items with "pinned" and "selected" flags
select_items ids="a1b2,c3d4"
pin_selection                    -> {"canvas": "...", "ids": ["a1b2", "c3d4"]}
` + "```" + `
`
