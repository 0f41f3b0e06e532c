package sections

const problemBoilerplate = "**Industry Challenges**\n" +
	"Organizations today face unprecedented challenges: rapid technological change, increasing security threats, and the need to do more with less. " +
	"Legacy systems, fragmented processes, and resource constraints can hinder progress.\n\n" +
	"**Client-Specific Pain Points**\n" +
	"Through our analysis, we have identified key pain points that must be addressed to achieve your goals. Our approach is designed to resolve these issues and unlock new opportunities for growth."

const solutionBoilerplate = "**Technology Stack**\n" +
	"We utilize industry-leading platforms and tools, ensuring scalability, security, and future-proofing. Our engineers are certified in AWS, Azure, and Google Cloud, and we maintain partnerships with top technology vendors.\n\n" +
	"**Implementation Methodology**\n" +
	"Our phased approach includes discovery, design, implementation, and ongoing support. We use agile project management to ensure flexibility and rapid delivery."

const roiBoilerplate = "**Value Drivers**\n" +
	"Our solution delivers value through cost savings, improved efficiency, and risk reduction. By modernizing your IT environment, you can expect lower maintenance costs, fewer outages, and faster response to business needs.\n\n" +
	"**Long-Term Impact**\n" +
	"Beyond immediate savings, our approach positions your organization for long-term growth. You will benefit from increased agility, better compliance, and a stronger security posture."

const termsAndConditions = "Standard terms and conditions apply. All timelines and costs are estimates and subject to final scoping. " +
	"A formal Statement of Work (SoW) and Master Services Agreement (MSA) will be provided upon request.\n\n" +
	"**Confidentiality**\n" +
	"All information shared between parties will be treated as confidential and used solely for the purposes of this engagement.\n\n" +
	"**Change Management**\n" +
	"Any changes to scope, timeline, or pricing will be managed through a formal change control process.\n\n" +
	"**Governing Law**\n" +
	"This proposal is governed by the laws of the applicable jurisdiction."
