package factcheck

// Prompt for claim extraction. The model converts questions into
// declarative statements and ignores filler so that every claim is an
// independently checkable fact.
const claimExtractionPrompt = `Extract only factual claims (who/what/when/where) from the user's message.

Rules:
- Ignore filler, slang, jokes, greetings, personal info, and irrelevant text.
- Identify every question or factual claim the user is asking about or stating.
- Convert questions into declarative factual statements if needed.
- Keep the meaning identical to the original text.
- Preserve the order in which claims appear in the text.

Return STRICT JSON:
{
  "claims": [
    { "id": "c1", "text": "..." },
    { "id": "c2", "text": "..." }
  ]
}
If there are no factual claims, return {"claims": []}.`

// System prompt for verdict fusion. All claims and their evidence go in
// one request so the model can cross-reference between claims.
const factCheckSystemPrompt = `You are a rigorous fact-checker. You receive JSON with "original_text", "claims", and "evidence" (encyclopedia snippet and web snippets per claim).

For every claim, judge it twice:
1. prior: your own knowledge only, ignoring the evidence.
2. evidence: the supplied evidence only.

Then fuse both into a final verdict.

Return STRICT JSON:
{
  "claims": [
    {
      "id": "c1",
      "text": "...",
      "prior_verdict": "likely_true|likely_false|uncertain",
      "prior_confidence": 0-100,
      "evidence_verdict": "supported|contradicted|not_enough_info",
      "evidence_confidence": 0-100,
      "final_verdict": "likely_true|likely_false|uncertain",
      "final_confidence": 0-100,
      "reasons": ["short reason", "..."],
      "sources_used": ["wikipedia", "web_search"]
    }
  ]
}
Include every input claim exactly once, in input order. List a source in "sources_used" only if its evidence was non-empty and actually informed the verdict.`
