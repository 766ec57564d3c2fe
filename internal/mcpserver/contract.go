package mcpserver

// LinkFormatContract describes the two link notations the server converts
// between, for LLM consumers that read or write vault notes.
const LinkFormatContract = `# Vault Link Format

Notes in the vault reference each other in one of two notations. The
convert tools translate between them without touching any other text.

## Internal links

` + "```" + `
[[target]]
[[target#Heading]]
[[target#^block-id]]
[[target|display text]]
[[target#Heading|display text]]
` + "```" + `

- ` + "`target`" + ` is a document name or a vault-relative path without the
  ` + "`.md`" + ` extension (e.g. ` + "`projects/Project Plan`" + `).
- A block reference (` + "`#^id`" + `) wins over a heading when both are present.
- Embeds (` + "`![[...]]`" + `) are left alone by every conversion.
- Inside a Markdown table write the alias separator as ` + "`\\|`" + `.

## External URIs

` + "```" + `
obsidian://open?vault=Notes&file=projects%2FProject%20Plan&heading=Goals
obsidian://adv-uri?vault=Notes&uid=123
[display text](obsidian://open?vault=Notes&file=Target&block=b1)
` + "```" + `

- Actions: ` + "`open`" + ` and ` + "`adv-uri`" + `. Anything else is not converted.
- Identifiers, by priority: ` + "`file`" + ` (name or path), ` + "`uuid`" + `, ` + "`uid`" + `.
  ` + "`uuid`" + ` and ` + "`uid`" + ` are looked up in the frontmatter field named by
  the ` + "`uid_field_name`" + ` setting (default ` + "`uuid`" + `).
- Values are percent-encoded; spaces are ` + "`%20`" + `.
- When ` + "`enforce_vault_name`" + ` is on, a URI naming another vault is left as is.

## Conversion rules

1. URIs that do not resolve to a document are left unchanged.
2. Internal links that do not resolve are left unchanged unless the
   ` + "`fallback_uri`" + ` setting is on.
3. The bracketed text of ` + "`[text](uri)`" + ` becomes the alias according to
   ` + "`display_text_mode`" + `: ` + "`always`" + `, ` + "`onlyIfDifferent`" + ` or ` + "`never`" + `.
4. Use ` + "`stamp_note`" + ` to give a note a stable id before linking to it by id.
`
