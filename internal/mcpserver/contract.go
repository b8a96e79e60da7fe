package mcpserver

// PageFormat describes the recipe listing markup that capture understands
// with the default selectors.
const PageFormat = `# Pantry Listing Page Format

A listing page is a static HTML document. Every recipe is one card inside
the recipes container; cards are captured in document order.

## Structure

` + "```" + `html
<html>
<head><title>Weeknight dinners</title></head>   <!-- page title -->
<body>
  <div class="recipes">
    <div class="card">
      <h4>Chicken Curry</h4>                    <!-- title -->
      <p>Spicy and rich</p>                     <!-- description -->
      <div class="time">
        <div class="prep"><span>15 min</span></div>
        <div class="cook"><span>30 min</span></div>
      </div>
    </div>
  </div>
</body>
</html>
` + "```" + `

## Rules

1. **Cards** match ` + "`" + `.recipes .card` + "`" + `. Anything outside the container is ignored.
2. **Title** is the text of the first ` + "`" + `h4` + "`" + ` in the card, **description** the first ` + "`" + `p` + "`" + `.
   Text is kept exactly as written; a missing element captures as empty text.
3. **Times** are read from ` + "`" + `.time .prep span` + "`" + ` and ` + "`" + `.time .cook span` + "`" + `.
   The first number followed by "min" wins (` + "`" + `"Prep: 15 min"` + "`" + ` is 15); otherwise the
   first whole number; otherwise the time is absent.
4. **Absent times never exclude a card** from a time-limited filter.
5. **File paths** end with ` + "`" + `.html` + "`" + ` and use forward slashes.
6. Selectors can be changed with the ` + "`" + `capture` + "`" + ` section of the server configuration.
`
