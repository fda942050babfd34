package catalog

import "github.com/spigell/interview-screener/internal/interview"

var defaultQuestions = []interview.Question{
	{
		ID:      1,
		Section: interview.SectionTechnical,
		Text:    "Describe your process for migrating an on-premises Exchange server to Exchange Online. What tools do you typically use for migration, and why?",
	},
	{
		ID:      2,
		Section: interview.SectionTechnical,
		Text:    "Explain how you set up and manage Azure Active Directory (AAD). What key elements do you focus on during initial deployment?",
	},
	{
		ID:      3,
		Section: interview.SectionTechnical,
		Text:    "How do you deploy applications using Microsoft Intune? Provide a brief step-by-step scenario.",
	},
	{
		ID:      4,
		Section: interview.SectionTechnical,
		Text:    "Detail the process for configuring Group Policy Objects (GPOs) to enforce security standards across multiple servers.",
	},
	{
		ID:      5,
		Section: interview.SectionTechnical,
		Text:    "Explain your process for troubleshooting a performance issue in a virtualized Azure VM environment.",
	},
	{
		ID:      6,
		Section: interview.SectionTechnical,
		Text:    "How do you typically secure an Office 365 environment against phishing attacks and unauthorized access?",
	},
	{
		ID:      7,
		Section: interview.SectionScenarioBased,
		Text:    "A client reports intermittent connectivity issues with their Azure-based virtual machines. Outline your troubleshooting steps.",
	},
	{
		ID:      8,
		Section: interview.SectionScenarioBased,
		Text:    "An Office 365 migration resulted in critical emails missing post-migration. Describe your immediate response and resolution approach.",
	},
	{
		ID:      9,
		Section: interview.SectionBehavioral,
		Text:    "Describe a time when you collaborated on a challenging project. What was your role, and how did you ensure project success?",
	},
	{
		ID:      10,
		Section: interview.SectionBehavioral,
		Text:    "How do you approach creating and maintaining documentation for technical projects?",
	},
}

// Default returns the built-in MSP technician question set.
func Default() *interview.Catalog {
	c, _ := interview.NewCatalog(defaultQuestions)
	return c
}
