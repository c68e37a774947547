package ai

import (
	"talentmatch/internal/config"
)

// SystemPrompts contains the system-level instruction for each operation
type SystemPrompts struct {
	Evaluate  string
	Extract   string
	Summarize string
	Describe  string
}

// UserPrompts contains the user prompt templates. Each template is a
// fmt format string; the verbs are documented on the field.
type UserPrompts struct {
	Evaluate  string // job description, candidate JSON
	Extract   string // document text
	Summarize string // candidate JSON
	Describe  string // title, required skills, nice to have, years, industry, education, responsibilities
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	Evaluate: `You are a meticulous technical recruiter. You assess one candidate against one job description and you never invent facts that are not in the candidate record.

You score five criteria as integers from 1 (very poor) to 10 (exceptional) and support every score with short evidence notes quoted or paraphrased from the candidate record.`,

	Extract: `You are an expert in analyzing resumes and curricula vitae. You extract structured information exactly as written in the document and never make up information.`,

	Summarize: `You are a professional career assistant who writes concise resume summaries for recruiters.`,

	Describe: `You are an expert technical recruiter and hiring manager who writes clear, inclusive and concise job descriptions.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Evaluate: `Assess the candidate below against the job description.

## Inputs
JOB DESCRIPTION:
%s

CANDIDATE RESUME (JSON):
%s

## What to do
1) Read both carefully. Items the job description lists as required are essential.
2) Score each criterion from 1 to 10 and give brief evidence notes.
3) If a criterion does not apply (for example no certifications are relevant), still score it from the available signals and say why.

## Criteria
A. Years of experience and seniority alignment: relevant years against the requirement, depth in core areas.
B. Skills match (hard skills): essential and nice-to-have skills satisfied. Missing essentials weigh more than missing nice-to-haves.
C. Industry, domain and project fit: similar products, stack, domain or customers. Prefer recent hands-on outcome-driven work.
D. Achievements and certifications: measurable outcomes, awards, relevant certificates.
E. Education alignment: degree relevance, advanced study, coursework that maps to the role.

## Output
Return only JSON matching the response schema.
- Provide matched_skills, missing_essential_skills and nice_to_have_matched.
- Compute overall_score_0_to_100 with weights 20%% years, 30%% skills, 30%% industry, 15%% achievements, 5%% education, each criterion mapped from 1-10 onto 0-100, rounded to the nearest integer.
- Include a one-paragraph summary tying together strengths, risks and fit.`,

	Extract: `Extract the candidate profile from the document below into JSON that follows the response schema.

Rules:
1. Do not make up any information.
2. If a field cannot be extracted or the information is not available, mark it as "n/a".
3. Dates use YYYY, YYYY-MM or YYYY-MM-DD. Use "present" for ongoing roles.

Document:
----------------
%s
----------------`,

	Summarize: `Write a summary of the candidate resume below.

The summary must include:
1. Core skills: programming languages, frameworks, tools and technical expertise on a single comma separated line, without sentences or adjectives.
2. Work experience: relevant roles, industries and contributions.
3. Education: highest degree and relevant qualifications.
4. Projects and achievements: key projects, outcomes, innovations or impact.
5. Transferable skills: cross-functional strengths that apply across roles or industries.
6. Years of experience: total years of experience in the field.

Response format:
1. Concise and professional tone.
2. Between 200 and 250 words. Never exceed 250 words.

Resume:
----------------
%s
----------------`,

	Describe: `Generate a job description for the role described by the inputs below.

Inputs:
- Job title: %s
- Required technical skills: %s
- Nice to have: %s
- Years of experience: %s
- Relevant industry or project experience: %s
- Education requirement: %s
- Responsibilities: %s

Output format (markdown):
### <job title> Job Description
### Technical Skills (Required)
### Nice to Have
### Years of Experience Needed
### Relevant Industry/Project Experience
### Education Requirement
### Responsibilities

Guidelines:
- Rewrite the inputs into a coherent, well-structured description.
- Convert comma separated lists into '-' bullet points.
- Omit a section whose input is empty.
- Keep it under 250 words and return only the markdown.`,
}

// defaultPrompts returns the built-in system prompt and user template for op
func defaultPrompts(op string) (string, string) {
	switch op {
	case config.OpEvaluate:
		return DefaultSystemPrompts.Evaluate, DefaultUserPrompts.Evaluate
	case config.OpExtract:
		return DefaultSystemPrompts.Extract, DefaultUserPrompts.Extract
	case config.OpSummarize:
		return DefaultSystemPrompts.Summarize, DefaultUserPrompts.Summarize
	case config.OpDescribe:
		return DefaultSystemPrompts.Describe, DefaultUserPrompts.Describe
	default:
		return "", ""
	}
}

// promptsFor resolves the system prompt and user template for op. Prompts
// loaded from files have already replaced the inline config values.
func promptsFor(op string, cfg config.OperationAIConfig) (string, string) {
	system, user := defaultPrompts(op)
	return resolvePrompt(cfg.Prompts.System, system), resolvePrompt(cfg.Prompts.User, user)
}

// resolvePrompt prefers the configured prompt over the built-in default
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
