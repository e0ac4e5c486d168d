package ai

// ExtractPrompt takes the JSON schema of the expected answer, the chunk
// position (index, total) and the chunk text, in that order.
const ExtractPrompt = `
# Task Context
Extract key concepts, entities, and their relationships from this text.

# Detailed Task Description & Rules
Output a JSON object with:
- entities: Array of objects with {id, name, type, description, importance}
  - id: unique identifier (lowercase, hyphenated)
  - name: display name
  - type: one of "concept", "person", "place", "event", "organization", "technology", "other"
  - description: brief description (optional, max 50 chars)
  - importance: 0-1 score based on significance
- relationships: Array of objects with {source, target, type, strength}
  - source/target: entity ids
  - type: relationship type (e.g., "relates-to", "part-of", "created-by", etc.)
  - strength: 0-1 score

Focus on the most important concepts, people, places, events, and ideas.
Be selective - aim for 5-15 entities and 5-20 relationships per chunk.

# Output Formatting
The answer must validate against this JSON schema:
%s

# Background Data
Text (chunk %d/%d):
%s

Return only valid JSON, no additional text.
`

// AnswerPrompt takes the graph context, the document context and the
// user's question.
const AnswerPrompt = `You are analyzing a knowledge graph extracted from documents. Answer the user's question based on the graph structure and relationships.

%s

Document Context:
%s

User Question: %s

Provide a clear, concise answer that:
1. References specific entities and relationships from the graph when relevant
2. Explains connections between concepts
3. Uses the graph structure to provide insights
4. Mentions if information is limited or unclear

Answer:`
