package mcpserver

// NoteFormatContract describes how notecal finds the date of a Markdown
// note, for LLM consumers that create or edit dated notes.
const NoteFormatContract = `# notecal Note Format Contract

notecal files a note under a calendar date taken from its YAML frontmatter.

## Structure

` + "```" + `markdown
---
date: 2025-01-15          # the calendar date this note belongs to
title: Weekly standup     # OPTIONAL – display title; defaults to the file name
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **The frontmatter block must open the file.** The first line is ` + "`" + `---` + "`" + `
   (an optional UTF-8 BOM is allowed), and the block ends at the next ` + "`" + `---` + "`" + ` line.
2. **Date fields are probed in order:** ` + "`" + `date` + "`" + `, ` + "`" + `timestamp` + "`" + `, ` + "`" + `publishdate` + "`" + `
   (unless configured otherwise). The first field that holds a parseable date wins;
   a note is filed under exactly one date.
3. **Accepted date values:** ISO dates (` + "`" + `2025-01-15` + "`" + `), ISO datetimes
   (` + "`" + `2025-01-15T09:30:00Z` + "`" + `), common written forms (` + "`" + `Jan 15, 2025` + "`" + `), and
   numbers as milliseconds since the Unix epoch. Times are converted to UTC before
   the date is taken.
4. **Empty values do not count:** an empty string, ` + "`" + `null` + "`" + `, ` + "`" + `0` + "`" + ` or ` + "`" + `false` + "`" + `
   is treated as absent and the next field is tried.
5. **Malformed YAML** or a block that is not a mapping means the note has no date.
6. **File names** end with a configured Markdown extension (` + "`" + `.md` + "`" + `, ` + "`" + `.markdown` + "`" + `).
   Files under ` + "`" + `node_modules` + "`" + ` are never indexed.

## Creating notes

Prefer the ` + "`" + `create_note_for_date` + "`" + ` tool. It picks a free file name from the
configured pattern (default ` + "`" + `YYYY-MM-DD-untitled.md` + "`" + `) and writes:

` + "```" + `markdown
---
date: 2025-01-15
title: Untitled
---

# New Note for 2025-01-15
` + "```" + `
`
