package mcpserver

// MetricsFormat documents every field of the snapshot returned by
// get_vault_metrics and compute_metrics.
const MetricsFormat = `# Vault Metrics Format

A snapshot is one JSON object with three fields.

` + "```" + `json
{
  "note_info": [ { ...note metrics... } ],
  "digraph": {
    "nodes": [ { ...note metrics... } ],
    "node_holes": [],
    "edge_property": "directed",
    "edges": [[0, 1, null]]
  },
  "count_duplicated_notes_by_name": 1
}
` + "```" + `

## Note metrics

| Field | Meaning |
|-------|---------|
| ` + "`id`" + ` | Position of the note in the submitted list. Notes that failed to parse leave a gap. |
| ` + "`count_word_in_content`" + ` | Whitespace-separated words in the body (front matter excluded). |
| ` + "`count_symbols_in_content`" + ` | UTF-8 byte length of the body. |
| ` + "`count_yaml_field`" + ` | Top-level front matter keys. |
| ` + "`count_word_in_note_name`" + ` | Words in the display name (file stem). |
| ` + "`count_symbols_in_note_name`" + ` | UTF-8 byte length of the display name. |
| ` + "`path_depth`" + ` | Path components below the vault root, file name included. |
| ` + "`path_len`" + ` | Byte length of the relative path joined with "/". |
| ` + "`aliases`" + ` | Entries of the ` + "`aliases`" + ` front matter list. |
| ` + "`todos`" + ` | ` + "`#todo`" + ` occurrences in the body plus matching ` + "`tags`" + ` entries. |

## Graph

- ` + "`digraph.nodes[i]`" + ` is the metrics record of ` + "`note_info[i]`" + `.
- An edge ` + "`[i, j, null]`" + ` means note i contains a ` + "`[[wikilink]]`" + ` whose target
  names note j. Aliases (` + "`[[target|alias]]`" + `) and headings (` + "`[[target#h]]`" + `)
  are stripped before matching.
- Unresolved links add no edge. Repeated links add one edge.
- When several notes share a name, links resolve to the first of them.

## Errors

A snapshot that cannot be serialized is replaced by the literal string
` + "`ERROR serde`" + `.
`
